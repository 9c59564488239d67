package bridge

// ---------------------------------------------------------------------------
// Sweep engine
// ---------------------------------------------------------------------------

// sweepPhase classifies every live handle after marking:
//
//   - unmarked, non-const data handle that still owns its host object:
//     demoted to weak and kept live for one more pass;
//   - any other unmarked, non-const handle: moved to the dead set;
//   - marked handle: mark cleared, stays live.
//
// A marked weak handle stays weak. Nothing is ever promoted back to strong.
func (c *Collector) sweepPhase(stats *PassStats) {
	for idx := range c.reg.allLive() {
		s := &c.reg.slots[idx]
		switch {
		case s.flags&(FlagMark|FlagConst) == 0:
			if s.kind == KindData && s.flags&FlagWeak == 0 {
				s.flags |= FlagWeak
				s.ref.Demote(c.host)
				stats.Demoted++
				continue
			}
			c.reg.kill(idx)
			stats.Swept++
		case s.flags&FlagMark != 0:
			s.flags &^= FlagMark
			stats.Marked++
		}
	}
}
