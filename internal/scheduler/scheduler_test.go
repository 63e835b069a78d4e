package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTicksRepeatedlyUntilContextCancelled(t *testing.T) {
	var runs int32
	job := &Job{
		Name:     "test-job",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	}
	s := &Scheduler{Jobs: []*Job{job}}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, int(atomic.LoadInt32(&runs)), 2)
}

func TestJobSkipsOverlappingTickInsteadOfQueuing(t *testing.T) {
	var concurrent int32
	var maxConcurrent int32
	release := make(chan struct{})

	job := &Job{
		Name:     "slow-job",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			n := atomic.AddInt32(&concurrent, 1)
			if n > atomic.LoadInt32(&maxConcurrent) {
				atomic.StoreInt32(&maxConcurrent, n)
			}
			<-release
			atomic.AddInt32(&concurrent, -1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.tick(ctx) // first tick blocks on release
		close(done)
	}()

	time.Sleep(15 * time.Millisecond) // give the first tick time to take the lock
	job.tick(ctx)                     // should skip immediately since the first tick holds the lock

	close(release)
	<-done
	cancel()

	require.LessOrEqual(t, int(maxConcurrent), 1)
}
