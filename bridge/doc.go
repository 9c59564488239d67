// Package bridge keeps the handle table that lets native objects be
// referenced from a host-managed, tracing-collected heap, and reconciles
// liveness between the two sides.
//
// Every handle lives in exactly one of two sets. The live set holds handles
// whose host object the registry still owns (or, after weak demotion, still
// observes). The dead set holds handles that a collection pass found
// unreachable and that wait for the host to drain them with PollOne.
//
// A collection pass has two phases. Marking runs every data handle's mark
// callback and marks the current contents of every registered root. Sweeping
// then walks the live set once:
//
//	unmarked data handle, still strong  -> demoted to weak, stays live
//	other unmarked, non-const handle    -> moved to the dead set
//	marked handle                       -> mark cleared, stays live
//
// Demotion is one-way. A data handle therefore needs two unreachable passes
// to die, which gives the host one full cycle to drop its own references
// before the native payload is freed.
//
// Draining is pull-based. The host calls PollOne (or runs a Scheduler with a
// poll budget) at its own cadence; the collector never frees anything by
// itself.
package bridge
