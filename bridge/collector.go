package bridge

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Collector: the handle table and its collection pass
// ---------------------------------------------------------------------------

// PassStats holds statistics from a single collection pass.
type PassStats struct {
	Pass      uint64
	Traced    int // mark callbacks invoked
	Roots     int // root slots that held a live handle
	Marked    int // live handles found marked at sweep
	Demoted   int // data handles demoted to weak
	Swept     int // handles moved to the dead set
	Live      int
	Dead      int
	Duration  time.Duration
	Timestamp time.Time
}

// Collector owns every handle, the root set, and the references the
// handles hold into the host. One mutex serializes handle creation, root
// registration, collection passes and polling. Mark callbacks run with
// that mutex held and must only use the Marker they are given.
type Collector struct {
	host Host
	log  commonlog.Logger

	mu     sync.Mutex
	reg    *registry
	roots  rootSet
	passes uint64
}

// NewCollector creates an empty collector holding references into host.
func NewCollector(host Host) *Collector {
	return &Collector{
		host: host,
		log:  commonlog.GetLogger("gcbridge.collector"),
		reg:  newRegistry(),
	}
}

// NewHandle registers a plain handle owning obj and returns its identity.
// Use NewDataHandle for KindData.
func (c *Collector) NewHandle(obj any, kind Kind) Value {
	if kind == KindData {
		panic(invariantf("NewHandle with KindData; use NewDataHandle"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.insert(kind, newStrongRef(c.host, obj), nil, nil)
}

// NewDataHandle registers a data handle owning obj whose native payload is
// data, traced and freed through dt.
func (c *Collector) NewDataHandle(obj any, dt *DataType, data any) Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.insert(KindData, newStrongRef(c.host, obj), dt, data)
}

// SetConst makes a live handle permanent. It is never swept or demoted.
// Reports false if v is not a live handle.
func (c *Collector) SetConst(v Value) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.reg.resolve(v)
	if !ok || c.reg.slots[idx].set != SetLive {
		return false
	}
	c.reg.slots[idx].flags |= FlagConst
	return true
}

// RegisterRoot makes the value stored at addr reachable on every pass until
// UnregisterRoot. The slot is read at mark time.
func (c *Collector) RegisterRoot(addr *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots.register(addr)
}

// UnregisterRoot forgets addr. Unknown addresses are ignored.
func (c *Collector) UnregisterRoot(addr *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots.unregister(addr)
}

// GlobalVariable registers a native global as a root.
func (c *Collector) GlobalVariable(addr *Value) {
	c.RegisterRoot(addr)
}

// Mark flags v reachable for the next pass. v must be a special constant
// or a live handle.
func (c *Collector) Mark(v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	marker{reg: c.reg}.Mark(v)
}

// MarkMaybe flags v reachable for the next pass if it is a live handle.
func (c *Collector) MarkMaybe(v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	marker{reg: c.reg}.MarkMaybe(v)
}

// RunCollectionPass marks and sweeps as one unit. The caller is expected to
// have paused the host mutators that could otherwise race handle creation.
func (c *Collector) RunCollectionPass() *PassStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	c.passes++
	stats := &PassStats{Pass: c.passes, Timestamp: start}

	c.markPhase(stats)
	c.sweepPhase(stats)

	if debugAssertions {
		if err := c.reg.verify(); err != nil {
			panic(invariantf("after pass %d: %v", c.passes, err))
		}
	}

	stats.Live = c.reg.live.n
	stats.Dead = c.reg.dead.n
	stats.Duration = time.Since(start)
	c.log.Debugf("pass %d: traced=%d roots=%d marked=%d demoted=%d swept=%d live=%d dead=%d in %s",
		stats.Pass, stats.Traced, stats.Roots, stats.Marked, stats.Demoted, stats.Swept,
		stats.Live, stats.Dead, stats.Duration)
	return stats
}

// Passes returns the number of completed collection passes.
func (c *Collector) Passes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passes
}

// Inspect returns a view of the handle behind v, live or dead.
func (c *Collector) Inspect(v Value) (HandleInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.reg.resolve(v)
	if !ok {
		return HandleInfo{}, false
	}
	return c.reg.info(idx), true
}

// LiveCount returns the size of the live set.
func (c *Collector) LiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.live.n
}

// DeadCount returns the number of handles awaiting PollOne.
func (c *Collector) DeadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.dead.n
}

// Snapshot lists every registered handle, live set first, each in set order.
func (c *Collector) Snapshot() []HandleInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]HandleInfo, 0, c.reg.live.n+c.reg.dead.n)
	for idx := range c.reg.allLive() {
		out = append(out, c.reg.info(idx))
	}
	for idx := range c.reg.allDead() {
		out = append(out, c.reg.info(idx))
	}
	return out
}

// Verify checks the registry's structural invariants.
func (c *Collector) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.verify()
}
