// Package scheduler runs the three periodic jobs of C12 — analysis, position
// monitor, outcome tracker — each on its own ticker with a non-overlap guard,
// grounded on live.go's ticker+goroutine+context idiom (runLive's
// `time.NewTicker` + `select { case <-ctx.Done(): ...; case <-ticker.C: ...}`
// loop). The original Python scheduler uses APScheduler's
// `max_instances=1`; Go has no scheduler library to match it with in the
// pack, so the same guarantee is implemented directly with a per-job
// `sync.Mutex.TryLock`.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is one periodic unit of work. Implementations are expected to do their
// own internal error logging; Scheduler only logs a skip when a previous run
// of the same job is still in flight.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	mu sync.Mutex
}

func (j *Job) tick(ctx context.Context) {
	if !j.mu.TryLock() {
		log.Printf("[WARN] scheduler: %s still running, skipping this tick", j.Name)
		return
	}
	defer j.mu.Unlock()

	if err := j.Run(ctx); err != nil {
		log.Printf("[ERROR] scheduler: %s: %v", j.Name, err)
	}
}

// Scheduler drives an arbitrary set of Jobs, each on its own ticker, and
// shields an in-flight job from the shutdown context so a cycle that is
// already running completes instead of being cut off mid-write.
type Scheduler struct {
	Jobs []*Job

	wg sync.WaitGroup
}

// Run blocks until ctx is cancelled, then waits for any in-flight job tick to
// finish before returning — the "shutdown-shielded completion" spec.md asks
// for C12.
func (s *Scheduler) Run(ctx context.Context) {
	for _, j := range s.Jobs {
		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJob(ctx, j)
		}()
	}
	s.wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, j *Job) {
	if j.Interval <= 0 {
		log.Printf("[WARN] scheduler: %s has non-positive interval, not scheduling", j.Name)
		return
	}
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	log.Printf("[INFO] scheduler: %s starting, interval=%s", j.Name, j.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] scheduler: %s shutting down", j.Name)
			return
		case <-ticker.C:
			// Shutdown-shielded: a tick already read from ticker.C runs to
			// completion against a fresh background context, so a DB write
			// or order placement in flight at shutdown is never torn down
			// mid-way — only the NEXT tick observes ctx.Done().
			j.tick(context.Background())
		}
	}
}
