// Package scheduler drives the recurring notification jobs. A single
// goroutine owns all firing decisions; job callbacks run serially relative
// to each other, so no two scheduled jobs ever overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/yourorg/contractwatch/internal/observability/metrics"
)

// Job is a named recurring task.
type Job struct {
	ID      string
	Name    string
	Trigger Trigger
	Run     func(ctx context.Context)
}

// JobInfo describes a registered job for introspection.
type JobInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NextFireTime time.Time `json:"next_fire_time"`
	Trigger      string    `json:"trigger"`
}

type entry struct {
	job  Job
	next time.Time
}

// Scheduler maintains a named set of recurring jobs keyed by job id.
// AddJob and RemoveJob are idempotent and report success as a bool; nothing
// a job does can crash the scheduler.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*entry
	logger *slog.Logger
	wake   chan struct{}
	now    func() time.Time
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:   make(map[string]*entry),
		logger: logger,
		wake:   make(chan struct{}, 1),
		now:    time.Now,
	}
}

// AddJob registers a job, replacing any existing job with the same id.
// Returns false (and logs) on invalid input instead of raising.
func (s *Scheduler) AddJob(job Job) bool {
	if job.ID == "" || job.Trigger == nil || job.Run == nil {
		s.logger.Error("rejecting invalid job",
			slog.String("job_id", job.ID),
			slog.String("name", job.Name),
		)
		return false
	}

	s.mu.Lock()
	_, replaced := s.jobs[job.ID]
	s.jobs[job.ID] = &entry{job: job, next: job.Trigger.Next(s.now())}
	s.mu.Unlock()

	s.logger.Info("job registered",
		slog.String("job_id", job.ID),
		slog.String("name", job.Name),
		slog.String("trigger", job.Trigger.Describe()),
		slog.Bool("replaced", replaced),
	)
	s.notifyLoop()
	return true
}

// RemoveJob unregisters a job. Returns false when no such job exists.
func (s *Scheduler) RemoveJob(id string) bool {
	s.mu.Lock()
	_, existed := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	if existed {
		s.logger.Info("job removed", slog.String("job_id", id))
		s.notifyLoop()
	} else {
		s.logger.Warn("job not found for removal", slog.String("job_id", id))
	}
	return existed
}

// Jobs lists registered jobs sorted by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, JobInfo{
			ID:           e.job.ID,
			Name:         e.job.Name,
			NextFireTime: e.next,
			Trigger:      e.job.Trigger.Describe(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Start runs the scheduling loop until ctx is cancelled. On shutdown no new
// fires are accepted; a job already running finishes first.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started")

	for {
		wait := s.untilNextFire()
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-s.wake:
			timer.Stop()
			continue
		case <-timer.C:
			s.runDue(ctx)
		}
	}
}

// untilNextFire returns how long to sleep before the earliest registered
// fire time. With no jobs registered it sleeps until woken by AddJob.
func (s *Scheduler) untilNextFire() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	const idle = time.Hour
	wait := idle
	now := s.now()
	for _, e := range s.jobs {
		if d := e.next.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// runDue executes every job whose fire time has passed, one at a time.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.jobs {
		if !e.next.After(now) {
			due = append(due, e)
			e.next = e.job.Trigger.Next(now)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].job.ID < due[j].job.ID })
	for _, e := range due {
		s.runJob(ctx, e.job)
	}
}

// runJob executes one job, containing any panic so a broken ad-hoc job can
// never take the scheduler down.
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				slog.String("job_id", job.ID),
				slog.Any("panic", r),
			)
			metrics.ObserveJobRun(job.ID, "panic")
		}
	}()

	start := s.now()
	s.logger.Info("job firing", slog.String("job_id", job.ID), slog.String("name", job.Name))
	job.Run(ctx)
	metrics.ObserveJobRun(job.ID, "success")
	s.logger.Info("job finished",
		slog.String("job_id", job.ID),
		slog.Duration("duration", s.now().Sub(start)),
	)
}

func (s *Scheduler) notifyLoop() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
