package bridge

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Scheduler: periodic collection passes and rate-limited draining
// ---------------------------------------------------------------------------

// DefaultInterval is the default time between collection passes.
const DefaultInterval = 30 * time.Second

// DefaultPollBudget is the default number of dead handles drained per tick.
const DefaultPollBudget = 64

// SchedulerConfig configures a Scheduler. Zero fields take defaults.
type SchedulerConfig struct {
	Interval   time.Duration
	PollBudget int

	// Finalizer receives each drained handle. When nil, Reclaimed.Dispose
	// is called instead.
	Finalizer func(Reclaimed)

	// OnPass observes the stats of every pass the scheduler runs.
	OnPass func(*PassStats)
}

// Scheduler drives a Collector on the host's cadence: each tick runs one
// collection pass and then drains up to PollBudget dead handles, so no
// single tick does unbounded reclamation work.
type Scheduler struct {
	c       *Collector
	cfg     SchedulerConfig
	log     commonlog.Logger
	enabled atomic.Bool

	mu  sync.Mutex // guards run
	run *schedulerRun

	tickMu    sync.Mutex // one tick at a time
	passCount atomic.Uint64
	drained   atomic.Uint64
	lastStats atomic.Pointer[PassStats]
}

// schedulerRun belongs to one loop goroutine: closing quit ends it, and it
// closes done on exit.
type schedulerRun struct {
	quit chan struct{}
	done chan struct{}
}

// NewScheduler creates a stopped Scheduler for c.
func NewScheduler(c *Collector, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = DefaultPollBudget
	}
	s := &Scheduler{
		c:   c,
		cfg: cfg,
		log: commonlog.GetLogger("gcbridge.scheduler"),
	}
	s.enabled.Store(true)
	return s
}

// Start begins the periodic loop. Starting a running Scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return
	}
	s.run = &schedulerRun{quit: make(chan struct{}), done: make(chan struct{})}
	go s.loop(s.run)
	s.log.Infof("started: interval %s, poll budget %d", s.cfg.Interval, s.cfg.PollBudget)
}

// Stop ends the loop and waits for an in-flight tick to finish. Stopping a
// Scheduler that is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	run := s.run
	s.run = nil
	s.mu.Unlock()
	if run == nil {
		return
	}
	close(run.quit)
	<-run.done
	s.log.Infof("stopped after %d passes, %d handles drained", s.passCount.Load(), s.drained.Load())
}

// SetEnabled enables or disables ticking. When disabled the loop keeps
// running but skips its work.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

func (s *Scheduler) IsEnabled() bool {
	return s.enabled.Load()
}

func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

// PassCount returns the number of passes this scheduler has run.
func (s *Scheduler) PassCount() uint64 {
	return s.passCount.Load()
}

// Drained returns the number of handles this scheduler has drained.
func (s *Scheduler) Drained() uint64 {
	return s.drained.Load()
}

// LastStats returns the most recent pass's stats, or nil before the first.
func (s *Scheduler) LastStats() *PassStats {
	return s.lastStats.Load()
}

// CollectNow runs one tick immediately, regardless of the timer.
// Returns the pass stats and the number of handles drained.
func (s *Scheduler) CollectNow() (*PassStats, int) {
	return s.tick()
}

func (s *Scheduler) loop(run *schedulerRun) {
	defer close(run.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-run.quit:
			return
		case <-ticker.C:
			if s.enabled.Load() {
				s.tick()
			}
		}
	}
}

func (s *Scheduler) tick() (*PassStats, int) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	stats := s.c.RunCollectionPass()
	s.passCount.Add(1)
	s.lastStats.Store(stats)
	if s.cfg.OnPass != nil {
		s.cfg.OnPass(stats)
	}

	fin := s.cfg.Finalizer
	if fin == nil {
		fin = Reclaimed.Dispose
	}
	n := s.c.Drain(s.cfg.PollBudget, fin)
	s.drained.Add(uint64(n))
	if n == s.cfg.PollBudget {
		s.log.Debugf("pass %d: poll budget %d exhausted, %d still dead", stats.Pass, n, s.c.DeadCount())
	}
	return stats, n
}
