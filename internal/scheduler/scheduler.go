// Package scheduler fires the daily maintenance jobs at fixed wall-clock times
// in the deployment's civil zone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// Job is a unit of work fired once per civil day at At.
type Job struct {
	Name string
	At   domain.TimeOfDay
	Run  func(ctx context.Context, firedAt time.Time) error
}

// Scheduler runs each job on its own timeline. Jobs may overlap with each
// other and with request handling; a failing or panicking run is logged and
// the job keeps its next trigger.
type Scheduler struct {
	clock   clockwork.Clock
	loc     *time.Location
	jobs    []Job
	warmup  *Job
	delay   time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a Scheduler for jobs. Trigger times are interpreted in loc.
func New(clock clockwork.Clock, loc *time.Location, metrics *observability.Metrics, logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		clock:   clock,
		loc:     loc,
		jobs:    jobs,
		metrics: metrics,
		logger:  logger,
	}
}

// WithWarmup runs job once, delay after Run starts. It is an operability aid:
// the job's regular trigger is unaffected.
func (s *Scheduler) WithWarmup(job Job, delay time.Duration) *Scheduler {
	s.warmup = &job
	s.delay = delay
	return s
}

// Run blocks until ctx is cancelled, then waits for in-flight runs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerActive.Set(1)
	defer s.metrics.SchedulerActive.Set(0)

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		s.logger.Info("job scheduled",
			"job", job.Name,
			"at", job.At.String(),
			"next", job.At.Next(s.clock.Now(), s.loc),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}

	if s.warmup != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
			case firedAt := <-s.clock.After(s.delay):
				s.execute(ctx, *s.warmup, firedAt)
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	for {
		now := s.clock.Now()
		timer := s.clock.NewTimer(job.At.Next(now, s.loc).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case firedAt := <-timer.Chan():
			s.execute(ctx, job, firedAt)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job, firedAt time.Time) {
	start := s.clock.Now()
	err := s.safeRun(ctx, job, firedAt)
	s.metrics.JobDuration.WithLabelValues(job.Name).Observe(s.clock.Since(start).Seconds())

	if err != nil {
		s.metrics.JobRuns.WithLabelValues(job.Name, "error").Inc()
		s.logger.Error("scheduled job failed", "job", job.Name, "fired_at", firedAt.In(s.loc), "error", err)
		return
	}
	s.metrics.JobRuns.WithLabelValues(job.Name, "success").Inc()
	s.metrics.JobLastSuccess.WithLabelValues(job.Name).Set(float64(s.clock.Now().Unix()))
}

func (s *Scheduler) safeRun(ctx context.Context, job Job, firedAt time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx, firedAt)
}
