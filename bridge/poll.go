package bridge

// ---------------------------------------------------------------------------
// Reclaim poller
// ---------------------------------------------------------------------------

// Reclaimed is a handle that left the registry. The registry no longer
// references Object; the caller holds one owning reference to it until
// Dispose.
type Reclaimed struct {
	ID   Value
	Kind Kind

	// Object is the host object, or nil if an observing reference found
	// the host had already dropped it.
	Object any

	DataType *DataType
	Data     any

	host Host
}

// Dispose runs the data type's free callback on the native payload and
// releases the caller's reference to Object. Call it exactly once.
func (r Reclaimed) Dispose() {
	if r.DataType != nil && r.DataType.Free != nil {
		r.DataType.Free(r.Data)
	}
	if r.Object != nil && r.host != nil {
		r.host.Release(r.Object)
	}
}

// PollOne takes the oldest handle off the dead set, hands the caller a
// fresh reference to its host object, drops the registry's reference and
// frees the handle record. It reports false when the dead set is empty.
// Exactly one handle is drained per call.
func (c *Collector) PollOne() (Reclaimed, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.reg.dead.head
	if idx == noSlot {
		return Reclaimed{}, false
	}
	c.reg.removeFromDead(idx)

	s := &c.reg.slots[idx]
	obj, ok := s.ref.Get(c.host)
	if ok {
		c.host.Retain(obj)
	}
	out := Reclaimed{
		ID:       c.reg.id(idx),
		Kind:     s.kind,
		Object:   obj,
		DataType: s.dtype,
		Data:     s.data,
		host:     c.host,
	}
	s.ref.Release(c.host)
	c.reg.release(idx)
	return out, true
}

// Drain polls at most limit handles (all of them if limit <= 0), passing
// each to fn outside the collector lock. Returns how many were drained.
func (c *Collector) Drain(limit int, fn func(Reclaimed)) int {
	n := 0
	for limit <= 0 || n < limit {
		r, ok := c.PollOne()
		if !ok {
			break
		}
		n++
		if fn != nil {
			fn(r)
		}
	}
	return n
}
