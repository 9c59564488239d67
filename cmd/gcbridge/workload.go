package main

import (
	"slices"

	"github.com/chazu/gcbridge/bridge"
	"github.com/chazu/gcbridge/hostsim"
)

type workload struct {
	plain int
	data  int
	roots int
}

// payload is the native side of a synthetic data handle: it references the
// next data handle in a chain and one plain handle.
type payload struct {
	next  bridge.Value
	child bridge.Value
	sim   *simulation
}

type simulation struct {
	roots []*bridge.Value
	freed int
}

var payloadType = &bridge.DataType{
	Name: "payload",
	Mark: func(m bridge.Marker, data any) {
		p := data.(*payload)
		m.Mark(p.next)
		m.MarkMaybe(p.child)
	},
	Free: func(data any) {
		data.(*payload).sim.freed++
	},
}

// build registers the workload's handles. Plain handles are created first;
// data handle i references data handle i+1 and plain handle i. Roots point
// at the first data handles, falling back to plain handles.
func (w workload) build(c *bridge.Collector, heap *hostsim.Heap) *simulation {
	sim := &simulation{}

	plain := make([]bridge.Value, w.plain)
	for i := range plain {
		plain[i] = c.NewHandle(heap.New("plain"), bridge.KindObject)
	}

	// The chain is registered tail first so each payload is traced before
	// the handle ahead of it marks it.
	data := make([]bridge.Value, w.data)
	payloads := make([]*payload, w.data)
	for i := len(data) - 1; i >= 0; i-- {
		payloads[i] = &payload{next: bridge.Nil, child: bridge.Nil, sim: sim}
		data[i] = c.NewDataHandle(heap.New("data"), payloadType, payloads[i])
	}
	for i, p := range payloads {
		if i+1 < len(data) {
			p.next = data[i+1]
		}
		if i < len(plain) {
			p.child = plain[i]
		}
	}

	targets := slices.Concat(data, plain[min(len(data), len(plain)):])
	for i := 0; i < w.roots && i < len(targets); i++ {
		slot := new(bridge.Value)
		*slot = targets[i]
		c.RegisterRoot(slot)
		sim.roots = append(sim.roots, slot)
	}

	// The first plain handle plays the role of an interned constant.
	if len(plain) > 0 {
		c.SetConst(plain[0])
	}
	return sim
}

// dropRoot unregisters the most recently added root.
func (s *simulation) dropRoot(c *bridge.Collector) {
	n := len(s.roots)
	if n == 0 {
		return
	}
	c.UnregisterRoot(s.roots[n-1])
	s.roots = s.roots[:n-1]
}
