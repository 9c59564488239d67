package bridge

// ---------------------------------------------------------------------------
// Host: the host-domain memory manager
// ---------------------------------------------------------------------------

// Host is the host-domain memory manager the registry holds references into.
// The bridge never scans host memory; it only takes and drops owning
// references and asks whether an observed object still exists.
type Host interface {
	// Retain takes an owning reference on obj.
	Retain(obj any)
	// Release drops an owning reference taken by Retain.
	Release(obj any)
	// Reachable reports whether the host still holds obj. It may turn false
	// at any time once the registry no longer owns obj.
	Reachable(obj any) bool
}

// ---------------------------------------------------------------------------
// HostRef: owning or observing reference
// ---------------------------------------------------------------------------

// HostRef is the registry's reference to a handle's host object. It starts
// owning and can be demoted to observing exactly once; there is no way back.
type HostRef struct {
	obj  any
	weak bool
}

// newStrongRef retains obj on host and returns an owning reference.
func newStrongRef(host Host, obj any) HostRef {
	if obj != nil {
		host.Retain(obj)
	}
	return HostRef{obj: obj}
}

// IsWeak reports whether the reference has been demoted.
func (r HostRef) IsWeak() bool {
	return r.weak
}

// Get returns the host object. An owning reference always yields its
// target; an observing one yields it only while the host still has it.
func (r HostRef) Get(host Host) (any, bool) {
	if r.obj == nil {
		return nil, false
	}
	if r.weak && !host.Reachable(r.obj) {
		return nil, false
	}
	return r.obj, true
}

// Demote gives up ownership of the target but keeps observing it.
// Demoting an observing reference does nothing.
func (r *HostRef) Demote(host Host) {
	if r.weak {
		return
	}
	r.weak = true
	if r.obj != nil {
		host.Release(r.obj)
	}
}

// Release drops the reference entirely, releasing ownership if still held.
func (r *HostRef) Release(host Host) {
	if !r.weak && r.obj != nil {
		host.Release(r.obj)
	}
	r.obj = nil
}
