package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
)

const defaultTick = time.Minute

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type schedule struct {
	job   Job
	every time.Duration
	next  time.Time
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger  *logger.Logger
	Lock    Lock
	Metrics *metrics.CronJobMetrics
	Tick    time.Duration
	Clock   func() time.Time
}

// Service runs each registered job once per its interval. The lock keeps
// worker replicas from running the same job concurrently.
type Service struct {
	logg    *logger.Logger
	lock    Lock
	metrics *metrics.CronJobMetrics
	tick    time.Duration
	now     func() time.Time

	mu   sync.Mutex
	jobs []*schedule
}

// NewService builds a cron service with no jobs.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	tick := params.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		logg:    params.Logger,
		lock:    params.Lock,
		metrics: params.Metrics,
		tick:    tick,
		now:     clock,
	}, nil
}

// Register schedules job every interval, first run on the next tick.
func (s *Service) Register(job Job, every time.Duration) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.jobs {
		if existing.job.Name() == job.Name() {
			return fmt.Errorf("job %s already registered", job.Name())
		}
	}
	s.jobs = append(s.jobs, &schedule{job: job, every: every})
	return nil
}

// Jobs returns the registered job names in registration order.
func (s *Service) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for _, sched := range s.jobs {
		names = append(names, sched.job.Name())
	}
	return names
}

// Run executes due jobs on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.runDue(ctx)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Service) runDue(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	due := make([]*schedule, 0, len(s.jobs))
	for _, sched := range s.jobs {
		if !now.Before(sched.next) {
			due = append(due, sched)
		}
	}
	s.mu.Unlock()

	for _, sched := range due {
		s.runJob(ctx, sched)
	}
}

func (s *Service) runJob(ctx context.Context, sched *schedule) {
	name := sched.job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	locked, err := s.lock.Acquire(jobCtx, name, sched.every)
	if err != nil {
		s.logg.Error(jobCtx, "lock acquire failed", err)
		return
	}
	if !locked {
		s.logg.Debug(jobCtx, "job held by another instance; skipping")
		s.metrics.Record(name, metrics.JobSkipped, 0, s.now())
		s.advance(sched)
		return
	}
	defer func() {
		if relErr := s.lock.Release(jobCtx, name); relErr != nil {
			s.logg.Error(jobCtx, "failed to release cron lock", relErr)
		}
	}()

	start := s.now()
	err = sched.job.Run(jobCtx)
	duration := s.now().Sub(start)
	s.advance(sched)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.Record(name, metrics.JobFailed, duration, s.now())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.Record(name, metrics.JobSucceeded, duration, s.now())
}

func (s *Service) advance(sched *schedule) {
	s.mu.Lock()
	sched.next = s.now().Add(sched.every)
	s.mu.Unlock()
}
