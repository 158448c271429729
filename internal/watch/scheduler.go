package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Scheduler submits rebuild requests on a timetable.
type Scheduler struct {
	scheduler gocron.Scheduler
	submit    Submitter
	ctx       context.Context
	logger    *slog.Logger
}

// NewScheduler creates a stopped scheduler feeding submit.
func NewScheduler(submit Submitter) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.RuntimeError("failed to create scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s, submit: submit, ctx: context.Background(), logger: slog.Default()}, nil
}

// WithLogger sets the logger.
func (s *Scheduler) WithLogger(l *slog.Logger) *Scheduler {
	if l != nil {
		s.logger = l
	}
	return s
}

// ScheduleEvery requests a rebuild every interval.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("rebuild interval must be positive").
			WithContext("interval", interval.String()).
			Build()
	}
	return s.schedule(name, gocron.DurationJob(interval))
}

// ScheduleCron requests a rebuild on a five-field cron expression.
func (s *Scheduler) ScheduleCron(name, expr string) (string, error) {
	return s.schedule(name, gocron.CronJob(expr, false))
}

func (s *Scheduler) schedule(name string, def gocron.JobDefinition) (string, error) {
	job, err := s.scheduler.NewJob(def, gocron.NewTask(s.fire, name), gocron.WithName(name))
	if err != nil {
		return "", errors.ValidationError("failed to create scheduled rebuild").
			WithCause(err).
			WithContext("job", name).
			Build()
	}
	return job.ID().String(), nil
}

// Start begins running jobs. ctx bounds the submissions.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.logger.Info("Starting rebuild scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) fire(name string) {
	s.logger.Debug("Scheduled rebuild", slog.String("job", name))
	if err := s.submit.Submit(s.ctx, Request{Trigger: TriggerSchedule}); err != nil {
		s.logger.Warn("Scheduled rebuild not queued", slog.String("job", name), logfields.Error(err))
	}
}
