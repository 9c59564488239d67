// Package hostsim is an in-memory stand-in for a host-domain heap. It keeps
// owning reference counts for the bridge, pins for host-side references,
// and a Collect step that drops everything nobody holds.
package hostsim

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Object is a host-side object.
type Object struct {
	ID   uint64
	Name string
}

func (o *Object) String() string {
	return fmt.Sprintf("%s#%d", o.Name, o.ID)
}

type entry struct {
	owners int // references held through the bridge
	pins   int // references held by host code
}

// Heap tracks host objects. It is safe for concurrent use.
type Heap struct {
	mu        sync.Mutex
	objects   map[*Object]*entry
	nextID    atomic.Uint64
	collected atomic.Uint64
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{objects: make(map[*Object]*entry)}
}

// New allocates an object. It is unreferenced until retained or pinned, so
// the next Collect would drop it.
func (h *Heap) New(name string) *Object {
	obj := &Object{ID: h.nextID.Add(1), Name: name}
	h.mu.Lock()
	h.objects[obj] = &entry{}
	h.mu.Unlock()
	return obj
}

func (h *Heap) lookup(obj any) *entry {
	o, ok := obj.(*Object)
	if !ok {
		return nil
	}
	return h.objects[o]
}

// Retain takes an owning reference on obj.
func (h *Heap) Retain(obj any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.lookup(obj); e != nil {
		e.owners++
	}
}

// Release drops an owning reference on obj.
func (h *Heap) Release(obj any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.lookup(obj); e != nil && e.owners > 0 {
		e.owners--
	}
}

// Reachable reports whether obj has not been collected yet.
func (h *Heap) Reachable(obj any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lookup(obj) != nil
}

// Pin records a host-side reference to obj.
func (h *Heap) Pin(obj *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.objects[obj]; e != nil {
		e.pins++
	}
}

// Unpin drops a host-side reference to obj.
func (h *Heap) Unpin(obj *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.objects[obj]; e != nil && e.pins > 0 {
		e.pins--
	}
}

// Owners returns the number of owning references held on obj.
func (h *Heap) Owners(obj *Object) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e := h.objects[obj]; e != nil {
		return e.owners
	}
	return 0
}

// Collect drops every object with no owners and no pins and returns how
// many were dropped.
func (h *Heap) Collect() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for obj, e := range h.objects {
		if e.owners == 0 && e.pins == 0 {
			delete(h.objects, obj)
			n++
		}
	}
	h.collected.Add(uint64(n))
	return n
}

// Len returns the number of objects still on the heap.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// Collected returns the total number of objects dropped by Collect.
func (h *Heap) Collected() uint64 {
	return h.collected.Load()
}
