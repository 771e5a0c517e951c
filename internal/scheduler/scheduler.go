// Package scheduler runs periodic jobs such as trend collection.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrJobNotFound is returned by RunJobNow for an unknown job name.
var ErrJobNotFound = errors.New("job not found")

// ErrJobRunning is returned by RunJobNow while the job is still executing.
var ErrJobRunning = errors.New("job already running")

// Job represents a scheduled job.
type Job struct {
	Name       string
	Schedule   Schedule
	Handler    func(ctx context.Context) error
	Timeout    time.Duration
	RunOnStart bool

	LastRun   time.Time
	NextRun   time.Time
	LastError string
	running   bool
}

// Schedule defines when a job should run.
type Schedule struct {
	// For fixed-interval jobs
	Interval time.Duration

	// For cron jobs, a standard five-field expression (UTC)
	Cron string

	Type ScheduleType

	cron cron.Schedule
}

// ScheduleType defines the type of schedule.
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval"
	ScheduleCron     ScheduleType = "cron"
)

// Every returns an interval schedule.
func Every(d time.Duration) Schedule {
	return Schedule{Type: ScheduleInterval, Interval: d}
}

// ParseCron returns a cron schedule for a standard five-field expression.
func ParseCron(expr string) (Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return Schedule{Type: ScheduleCron, Cron: expr, cron: sched}, nil
}

// String describes the schedule.
func (s Schedule) String() string {
	if s.Type == ScheduleCron {
		return "cron " + s.Cron
	}
	return "every " + s.Interval.String()
}

// Next returns the next run time after now.
func (s Schedule) Next(now time.Time) time.Time {
	switch s.Type {
	case ScheduleCron:
		if s.cron != nil {
			return s.cron.Next(now)
		}
	case ScheduleInterval:
		if s.Interval > 0 {
			return now.Add(s.Interval)
		}
	}
	return now.Add(time.Hour)
}

// JobStatus is a point-in-time view of a job.
type JobStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run"`
	NextRun   time.Time `json:"next_run"`
	Running   bool      `json:"running"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	jobs    []*Job
	jobsMux sync.RWMutex

	tick time.Duration
	now  func() time.Time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that checks for due jobs every tick.
func NewScheduler(tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:   make([]*Job, 0),
		tick:   tick,
		now:    func() time.Time { return time.Now().UTC() },
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler.
func (s *Scheduler) AddJob(job *Job) {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	if job.Timeout == 0 {
		job.Timeout = 5 * time.Minute
	}
	job.NextRun = job.Schedule.Next(s.now())
	s.jobs = append(s.jobs, job)

	log.Info().
		Str("job", job.Name).
		Str("schedule", job.Schedule.String()).
		Time("next_run", job.NextRun).
		Msg("Job registered")
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.jobs)).Msg("Starting scheduler")

	s.jobsMux.Lock()
	for _, job := range s.jobs {
		if job.RunOnStart {
			s.launch(job)
		}
	}
	s.jobsMux.Unlock()

	s.wg.Add(1)
	go s.jobLoop()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) jobLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

// checkAndRunJobs runs any jobs that are due. A job still running from its
// previous trigger is skipped for this slot.
func (s *Scheduler) checkAndRunJobs() {
	now := s.now()

	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	for _, job := range s.jobs {
		if now.Before(job.NextRun) {
			continue
		}
		job.NextRun = job.Schedule.Next(now)
		if job.running {
			log.Warn().Str("job", job.Name).Msg("Previous run still in progress, skipping")
			continue
		}
		s.launch(job)

		log.Debug().
			Str("job", job.Name).
			Time("next_run", job.NextRun).
			Msg("Job scheduled for next run")
	}
}

// launch must be called with jobsMux held.
func (s *Scheduler) launch(job *Job) {
	job.running = true
	job.LastRun = s.now()
	s.wg.Add(1)
	go s.runJob(job)
}

func (s *Scheduler) runJob(job *Job) {
	defer s.wg.Done()
	log.Info().Str("job", job.Name).Msg("Running job")

	ctx, cancel := context.WithTimeout(s.ctx, job.Timeout)
	defer cancel()

	err := job.Handler(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("Job failed")
	} else {
		log.Info().Str("job", job.Name).Msg("Job completed")
	}

	s.jobsMux.Lock()
	job.running = false
	job.LastError = ""
	if err != nil {
		job.LastError = err.Error()
	}
	s.jobsMux.Unlock()
}

// RunJobNow runs a specific job immediately by name.
func (s *Scheduler) RunJobNow(name string) error {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	for _, job := range s.jobs {
		if job.Name == name {
			if job.running {
				return ErrJobRunning
			}
			s.launch(job)
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

// GetJobStatus returns the status of all jobs.
func (s *Scheduler) GetJobStatus() []JobStatus {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	status := make([]JobStatus, len(s.jobs))
	for i, job := range s.jobs {
		status[i] = JobStatus{
			Name:      job.Name,
			Schedule:  job.Schedule.String(),
			LastRun:   job.LastRun,
			NextRun:   job.NextRun,
			Running:   job.running,
			LastError: job.LastError,
		}
	}
	return status
}
