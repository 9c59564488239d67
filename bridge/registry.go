package bridge

import (
	"fmt"
	"iter"
)

// ---------------------------------------------------------------------------
// registry: slot arena with intrusive live/dead lists
// ---------------------------------------------------------------------------

const noSlot int32 = -1

// slot is one handle record. Set membership is a tag plus prev/next links,
// so moving a handle between sets never moves its payload.
type slot struct {
	gen   uint32
	set   Set
	prev  int32
	next  int32
	flags Flags
	kind  Kind
	ref   HostRef
	dtype *DataType
	data  any
}

type slotList struct {
	head int32
	tail int32
	n    int
}

// registry owns every handle. It is not synchronized; Collector guards it.
type registry struct {
	slots []slot
	free  []int32
	live  slotList
	dead  slotList
}

func newRegistry() *registry {
	return &registry{
		live: slotList{head: noSlot, tail: noSlot},
		dead: slotList{head: noSlot, tail: noSlot},
	}
}

func (r *registry) list(s Set) *slotList {
	switch s {
	case SetLive:
		return &r.live
	case SetDead:
		return &r.dead
	}
	panic(invariantf("no list for set %s", s))
}

// insert allocates a slot and appends it to the live set.
func (r *registry) insert(kind Kind, ref HostRef, dtype *DataType, data any) Value {
	var idx int32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = int32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[idx]
	s.kind = kind
	s.ref = ref
	s.dtype = dtype
	s.data = data
	s.flags = 0
	r.link(SetLive, idx)
	return encodeHandle(idx, s.gen)
}

// resolve maps a handle identity to its slot index. Stale identities (slot
// freed and possibly reused) and non-handle words do not resolve.
func (r *registry) resolve(v Value) (int32, bool) {
	if !v.IsHandle() {
		return noSlot, false
	}
	idx, gen := decodeHandle(v)
	if idx < 0 || int(idx) >= len(r.slots) {
		return noSlot, false
	}
	s := &r.slots[idx]
	if s.gen != gen || s.set == SetNone {
		return noSlot, false
	}
	return idx, true
}

func (r *registry) id(idx int32) Value {
	return encodeHandle(idx, r.slots[idx].gen)
}

func (r *registry) link(set Set, idx int32) {
	s := &r.slots[idx]
	if s.set != SetNone {
		panic(invariantf("slot %d already in %s set", idx, s.set))
	}
	l := r.list(set)
	s.set = set
	s.prev = l.tail
	s.next = noSlot
	if l.tail != noSlot {
		r.slots[l.tail].next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
	l.n++
}

func (r *registry) unlink(set Set, idx int32) {
	s := &r.slots[idx]
	if s.set != set {
		panic(invariantf("slot %d is in %s set, not %s", idx, s.set, set))
	}
	l := r.list(set)
	if s.prev != noSlot {
		r.slots[s.prev].next = s.next
	} else {
		l.head = s.next
	}
	if s.next != noSlot {
		r.slots[s.next].prev = s.prev
	} else {
		l.tail = s.prev
	}
	s.prev, s.next = noSlot, noSlot
	s.set = SetNone
	l.n--
}

// removeFromLive and removeFromDead detach a slot without freeing it.
func (r *registry) removeFromLive(idx int32) { r.unlink(SetLive, idx) }
func (r *registry) removeFromDead(idx int32) { r.unlink(SetDead, idx) }

// kill transfers a live slot to the tail of the dead set.
func (r *registry) kill(idx int32) {
	r.removeFromLive(idx)
	r.link(SetDead, idx)
}

// release frees a detached slot. Its identity goes stale immediately.
func (r *registry) release(idx int32) {
	s := &r.slots[idx]
	if s.set != SetNone {
		panic(invariantf("releasing slot %d still in %s set", idx, s.set))
	}
	*s = slot{gen: (s.gen + 1) & genMask, prev: noSlot, next: noSlot}
	r.free = append(r.free, idx)
}

// all yields the slots of a set front to back. The next link is read before
// each yield, so the consumer may unlink the current slot and keep going.
func (r *registry) all(set Set) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		idx := r.list(set).head
		for idx != noSlot {
			next := r.slots[idx].next
			if !yield(idx) {
				return
			}
			idx = next
		}
	}
}

func (r *registry) allLive() iter.Seq[int32] { return r.all(SetLive) }
func (r *registry) allDead() iter.Seq[int32] { return r.all(SetDead) }

func (r *registry) info(idx int32) HandleInfo {
	s := &r.slots[idx]
	info := HandleInfo{
		ID:       encodeHandle(idx, s.gen),
		Kind:     s.kind,
		Flags:    s.flags,
		Set:      s.set,
		HostWeak: s.ref.IsWeak(),
	}
	if s.dtype != nil {
		info.DataType = s.dtype.Name
	}
	return info
}

// verify walks both lists and checks link symmetry, set tags, counts and
// flag sanity. It is O(n) and meant for debug builds and tests.
func (r *registry) verify() error {
	seen := make(map[int32]Set, r.live.n+r.dead.n)
	for _, set := range []Set{SetLive, SetDead} {
		l := r.list(set)
		prev := noSlot
		n := 0
		for idx := l.head; idx != noSlot; idx = r.slots[idx].next {
			s := &r.slots[idx]
			if s.set != set {
				return fmt.Errorf("slot %d linked in %s set but tagged %s", idx, set, s.set)
			}
			if s.prev != prev {
				return fmt.Errorf("slot %d: prev %d, want %d", idx, s.prev, prev)
			}
			if other, dup := seen[idx]; dup {
				return fmt.Errorf("slot %d appears in both %s and %s sets", idx, other, set)
			}
			if s.flags.Has(FlagConst) && set != SetLive {
				return fmt.Errorf("const slot %d in %s set", idx, set)
			}
			if s.flags.Has(FlagWeak) != s.ref.IsWeak() {
				return fmt.Errorf("slot %d: weak flag %v but host ref weak %v", idx, s.flags.Has(FlagWeak), s.ref.IsWeak())
			}
			seen[idx] = set
			prev = idx
			n++
		}
		if prev != l.tail {
			return fmt.Errorf("%s set tail %d, walked to %d", set, l.tail, prev)
		}
		if n != l.n {
			return fmt.Errorf("%s set count %d, walked %d", set, l.n, n)
		}
	}
	for idx := range r.slots {
		if s := &r.slots[idx]; s.set != SetNone {
			if _, ok := seen[int32(idx)]; !ok {
				return fmt.Errorf("slot %d tagged %s but not linked", idx, s.set)
			}
		}
	}
	return nil
}
