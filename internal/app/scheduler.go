package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultCycleTimeout = 10 * time.Second

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Reconciler   *Reconciler
	Interval     time.Duration
	CycleTimeout time.Duration
	RunOnStart   bool
	Logger       *slog.Logger
}

// Scheduler runs sync cycles on a fixed interval and on demand. At most one
// cycle is in flight; callers that arrive while one runs share its result.
type Scheduler struct {
	reconciler   *Reconciler
	interval     time.Duration
	cycleTimeout time.Duration
	runOnStart   bool
	logger       *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   *SyncResult
}

// NewScheduler creates an idle Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		reconciler:   cfg.Reconciler,
		interval:     cfg.Interval,
		cycleTimeout: cfg.CycleTimeout,
		runOnStart:   cfg.RunOnStart,
		logger:       cfg.Logger,
	}

	if s.interval <= 0 {
		s.interval = 30 * time.Second
	}

	if s.cycleTimeout <= 0 {
		s.cycleTimeout = defaultCycleTimeout
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Start arms the interval timer. Calling Start on an armed scheduler does
// nothing. The loop stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.InfoContext(ctx, "sync scheduler armed", slog.Duration("interval", s.interval))

	go s.loop(loopCtx, s.done)
}

// Stop disarms the timer and waits for the loop to exit. A cycle the loop
// is running is left to finish within the cycle timeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.logger.Info("sync scheduler stopped")
}

// Armed reports whether the interval timer is running.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// LastResult returns the most recent finished cycle.
func (s *Scheduler) LastResult() (SyncResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return SyncResult{}, false
	}

	return *s.last, true
}

// Trigger runs a cycle now, or joins the one already running.
func (s *Scheduler) Trigger(ctx context.Context) SyncResult {
	return s.run(ctx, TriggerManual)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.runOnStart {
		s.runToCompletion(ctx, TriggerStartup)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runToCompletion(ctx, TriggerInterval)
		}
	}
}

// start begins a cycle or joins the running one. The cycle is shared, so it
// keeps the initiator's values but not its cancellation; only the cycle
// timeout ends it early.
func (s *Scheduler) start(ctx context.Context, trigger string) <-chan singleflight.Result {
	return s.group.DoChan("sync", func() (any, error) {
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cycleTimeout)
		defer cancel()

		result := s.reconciler.Sync(cycleCtx, trigger)

		s.mu.Lock()
		s.last = &result
		s.mu.Unlock()

		return result, nil
	})
}

// run waits for the cycle to finish unless ctx ends first. Giving up does
// not stop the cycle for anyone else.
func (s *Scheduler) run(ctx context.Context, trigger string) SyncResult {
	select {
	case res := <-s.start(ctx, trigger):
		return res.Val.(SyncResult) //nolint:forcetypeassert // only SyncResult is stored
	case <-ctx.Done():
		return SyncResult{Outcome: SyncFailed, Trigger: trigger, StartedAt: time.Now(), Err: ctx.Err()}
	}
}

// runToCompletion is used by the loop so Stop never returns while a cycle
// goroutine is still alive.
func (s *Scheduler) runToCompletion(ctx context.Context, trigger string) {
	<-s.start(ctx, trigger)
}
