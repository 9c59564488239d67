package bridge

// ---------------------------------------------------------------------------
// Mark engine
// ---------------------------------------------------------------------------

// marker implements Marker over a registry. It holds no lock of its own; it
// is only reachable while the owning Collector is locked.
type marker struct {
	reg *registry
}

// Mark sets FlagMark on the handle behind v. Special constants are ignored,
// as are handles already moved to the dead set, which members of an
// unreachable cycle may still reference. Any other word that is not a
// registered handle breaks the caller's contract; debug builds panic on it,
// release builds ignore it.
func (m marker) Mark(v Value) {
	m.mark(v)
}

// mark reports whether v landed on a live handle.
func (m marker) mark(v Value) bool {
	if IsSpecialConst(v) {
		return false
	}
	idx, ok := m.reg.resolve(v)
	if !ok {
		assertf(false, "exact mark of %s which is not a handle", v)
		return false
	}
	s := &m.reg.slots[idx]
	if s.set != SetLive {
		return false
	}
	s.flags |= FlagMark
	return true
}

// MarkMaybe marks v only after finding it in the live set. The scan is
// linear in the number of live handles; callers with proven handles should
// use Mark.
func (m marker) MarkMaybe(v Value) {
	if IsSpecialConst(v) {
		return
	}
	for idx := range m.reg.allLive() {
		if m.reg.id(idx) == v {
			m.Mark(v)
			return
		}
	}
}

func (m marker) MarkLocations(vs []Value) {
	for _, v := range vs {
		m.Mark(v)
	}
}

// markPhase runs the mark callback of every live data handle that is not
// already marked, then marks the current contents of every root.
func (c *Collector) markPhase(stats *PassStats) {
	m := marker{reg: c.reg}
	for idx := range c.reg.allLive() {
		s := &c.reg.slots[idx]
		if s.kind != KindData || s.dtype == nil || s.dtype.Mark == nil || s.flags&FlagMark != 0 {
			continue
		}
		// FlagMark is the in-progress indicator while the callback runs, so
		// a path leading back to this handle stops here.
		s.flags |= FlagMark
		s.dtype.Mark(m, s.data)
		s.flags &^= FlagMark
		stats.Traced++
	}

	for _, addr := range c.roots.addrs {
		v := *addr
		if IsSpecialConst(v) {
			continue
		}
		if _, ok := c.reg.resolve(v); !ok {
			assertf(false, "root %p holds %s which is not a handle", addr, v)
			continue
		}
		if m.mark(v) {
			stats.Roots++
		}
	}
}
