package bridge

import (
	"errors"
	"slices"
	"testing"
)

func insertN(r *registry, n int) []Value {
	ids := make([]Value, n)
	for i := range ids {
		ids[i] = r.insert(KindObject, HostRef{}, nil, nil)
	}
	return ids
}

func collect(r *registry, s Set) []Value {
	var out []Value
	for idx := range r.all(s) {
		out = append(out, r.id(idx))
	}
	return out
}

func TestRegistryInsertOrder(t *testing.T) {
	r := newRegistry()
	ids := insertN(r, 4)

	if got := collect(r, SetLive); !slices.Equal(got, ids) {
		t.Errorf("live = %v, want %v", got, ids)
	}
	if r.live.n != 4 || r.dead.n != 0 {
		t.Errorf("counts live=%d dead=%d, want 4/0", r.live.n, r.dead.n)
	}
	if err := r.verify(); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryKillDuringIteration(t *testing.T) {
	r := newRegistry()
	ids := insertN(r, 5)

	// Remove every other element while walking; the walk must still visit all.
	visited := 0
	for idx := range r.allLive() {
		if visited%2 == 0 {
			r.kill(idx)
		}
		visited++
	}
	if visited != 5 {
		t.Fatalf("visited %d slots, want 5", visited)
	}

	wantDead := []Value{ids[0], ids[2], ids[4]}
	wantLive := []Value{ids[1], ids[3]}
	if got := collect(r, SetDead); !slices.Equal(got, wantDead) {
		t.Errorf("dead = %v, want %v", got, wantDead)
	}
	if got := collect(r, SetLive); !slices.Equal(got, wantLive) {
		t.Errorf("live = %v, want %v", got, wantLive)
	}
	if err := r.verify(); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryReleaseStalesIdentity(t *testing.T) {
	r := newRegistry()
	old := insertN(r, 1)[0]
	idx, ok := r.resolve(old)
	if !ok {
		t.Fatal("fresh handle does not resolve")
	}

	r.kill(idx)
	r.removeFromDead(idx)
	r.release(idx)

	if _, ok := r.resolve(old); ok {
		t.Error("released handle still resolves")
	}

	fresh := insertN(r, 1)[0]
	if fresh == old {
		t.Fatal("reused slot kept the old identity")
	}
	newIdx, _ := r.resolve(fresh)
	if newIdx != idx {
		t.Errorf("slot %d not reused (got %d)", idx, newIdx)
	}
	if _, ok := r.resolve(old); ok {
		t.Error("stale identity resolves to the reused slot")
	}
}

func TestRegistryResolveRejectsForeignWords(t *testing.T) {
	r := newRegistry()
	insertN(r, 2)
	for _, v := range []Value{Nil, FromInt(8), Value(12), encodeHandle(99, 0), encodeHandle(0, 5)} {
		if _, ok := r.resolve(v); ok {
			t.Errorf("%s resolved", v)
		}
	}
}

func expectInvariant(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", what)
		}
		err, ok := r.(error)
		var inv *InvariantError
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("%s: panic %v is not an InvariantError", what, r)
		}
	}()
	fn()
}

func TestRegistryMembershipIsExclusive(t *testing.T) {
	r := newRegistry()
	v := insertN(r, 1)[0]
	idx, _ := r.resolve(v)

	expectInvariant(t, "link live slot into dead set", func() { r.link(SetDead, idx) })

	r.kill(idx)
	expectInvariant(t, "kill a dead slot", func() { r.kill(idx) })
	expectInvariant(t, "release a linked slot", func() { r.release(idx) })

	if err := r.verify(); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryVerifyCatchesCorruption(t *testing.T) {
	r := newRegistry()
	ids := insertN(r, 3)
	idx, _ := r.resolve(ids[1])
	r.slots[idx].set = SetDead
	if err := r.verify(); err == nil {
		t.Error("verify missed a slot tagged with the wrong set")
	}
}
