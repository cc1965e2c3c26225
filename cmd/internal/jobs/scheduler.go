// Package jobs runs the periodic background work of the API process.
package jobs

import (
	"context"
	"github.com/labstack/gommon/log"
	"sync"
	"time"
)

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches one loop per job. Each job runs once right away and
// then on every tick. Ticks never overlap for the same job. The
// returned func cancels every loop and waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			log.Warnf("job %s has no interval, not scheduling it", job.Name)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
	return func() {
		cancel()
		s.wg.Wait()
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	s.runOnce(ctx, job)

out:
	for {
		select {
		case <-ctx.Done():
			break out
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
	log.Infof("job %s stopped", job.Name)
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	if err := job.Run(ctx); err != nil {
		log.Errorf("job %s failed: %v", job.Name, err)
	}
}
