// Package scheduler runs jobs on cron schedules, one run at a time per job,
// each bounded by a timeout.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tweetbot/pkg/logger"
)

// DefaultTimeout bounds a run when none is configured.
const DefaultTimeout = 30 * time.Minute

// Job is one scheduled task.
type Job func(ctx context.Context) error

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	Spec    string
	NextRun time.Time
	LastRun time.Time
}

type entry struct {
	id   cron.EntryID
	spec string
}

// Scheduler manages periodic tasks
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  logger.Logger

	mu   sync.Mutex
	jobs map[string]entry

	// base is cancelled by Stop so running jobs see shutdown.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating schedules in timezone ("" or "Local"
// for the machine zone). timeout <= 0 means DefaultTimeout.
func New(timezone string, timeout time.Duration, log logger.Logger) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
		loc = l
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithField("component", "scheduler")

	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		timeout: timeout,
		logger:  log,
		jobs:    make(map[string]entry),
		base:    base,
		cancel:  cancel,
	}, nil
}

// Validate reports whether spec is a valid five-field cron expression or
// descriptor such as "@hourly".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// AddJob schedules job under name. Adding a name twice replaces the first.
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() {
		// failures are logged by run; the schedule keeps going
		_ = s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old.id)
	}
	s.jobs[name] = entry{id: id, spec: spec}
	s.mu.Unlock()

	s.logger.InfoWithFields("Job scheduled", map[string]interface{}{
		"job":      name,
		"schedule": spec,
	})
	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[name]; ok {
		s.cron.Remove(e.id)
		delete(s.jobs, name)
		s.logger.WithField("job", name).Info("Job removed")
	}
}

// RunNow executes job immediately with the same timeout and logging as a
// scheduled run.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	log := s.logger.WithField("job", name)
	log.Info("Job starting")
	start := time.Now()

	err := job(ctx)
	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Error("Job failed")
		return err
	}
	log.WithField("duration", time.Since(start)).Info("Job completed")
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler starting")
	s.cron.Start()
}

// Stop halts scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Scheduler stopping")
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// ListJobs returns info about scheduled jobs, sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		ce := s.cron.Entry(e.id)
		infos = append(infos, JobInfo{
			Name:    name,
			Spec:    e.spec,
			NextRun: ce.Next,
			LastRun: ce.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.DebugWithFields(msg, pairs(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.WithError(err).ErrorWithFields(msg, pairs(keysAndValues))
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
