package scheduler

import (
	"context"
	"log"
	"time"
)

// Pruner is the minimal interface the scheduler needs from the audit layer.
type Pruner interface {
	// PruneOlderThan deletes audit rows older than the retention window and
	// returns how many were removed.
	PruneOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

// Scheduler periodically prunes the login-attempt audit trail.
type Scheduler struct {
	interval  time.Duration
	retention time.Duration
	pruner    Pruner

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that prunes every `interval`, keeping
// `retention` worth of rows. If interval <= 0 it defaults to 1 hour.
func NewScheduler(interval, retention time.Duration, pruner Pruner) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &Scheduler{
		interval:  interval,
		retention: retention,
		pruner:    pruner,
		done:      make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// parentCtx is used as the parent for internal contexts; calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		// already started
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

// loop runs the periodic job until cancelled.
func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	log.Printf("[scheduler] started with interval %s\n", s.interval)
	for {
		select {
		case <-s.ctx.Done():
			log.Println("[scheduler] context cancelled; stopping")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			func() {
				defer cancel()
				removed, err := s.pruner.PruneOlderThan(runCtx, s.retention)
				if err != nil {
					log.Printf("[scheduler] prune error: %v", err)
					return
				}
				if removed > 0 {
					log.Printf("[scheduler] pruned %d audit rows", removed)
				}
			}()
		}
	}
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		// not started
		return
	}
	s.cancel()
	<-s.done
	// reset for potential restart
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	log.Println("[scheduler] stopped")
}
