//go:build !gcbridge_debug

package bridge

import "testing"

func TestExactMarkOfStaleHandleIgnored(t *testing.T) {
	c, heap := newTestCollector()
	v := c.NewHandle(heap.New("x"), KindObject)
	c.RunCollectionPass()
	c.PollOne()

	c.Mark(v)
	if _, ok := c.Inspect(v); ok {
		t.Fatal("reclaimed handle came back")
	}
	requireVerified(t, c)
}

func TestRootHoldingForeignWordIgnored(t *testing.T) {
	c, heap := newTestCollector()
	live := c.NewHandle(heap.New("x"), KindObject)
	slot := encodeHandle(40, 0)
	c.RegisterRoot(&slot)

	stats := c.RunCollectionPass()
	if stats.Roots != 0 {
		t.Errorf("roots = %d, want 0", stats.Roots)
	}
	requireSet(t, c, live, SetDead)
}
