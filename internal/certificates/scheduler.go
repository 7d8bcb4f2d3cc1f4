package certificates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRegisterSchedule runs at 03:00 on the first day of every month
const DefaultRegisterSchedule = "0 0 3 1 * *"

// RegisterArchiver is the part of the service the scheduler drives
type RegisterArchiver interface {
	ArchiveRegister(ctx context.Context, month time.Time, recipients []string) (string, error)
}

// SchedulerConfig configures the monthly register job
type SchedulerConfig struct {
	Schedule   string
	Timezone   string
	Recipients []string
	Timeout    time.Duration
}

// RegisterScheduler archives the previous month's register on a cron schedule
type RegisterScheduler struct {
	cron     *cron.Cron
	archiver RegisterArchiver
	config   SchedulerConfig
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	running  bool
}

// NewRegisterScheduler validates the schedule and registers the job
func NewRegisterScheduler(archiver RegisterArchiver, config SchedulerConfig, logger *zap.Logger) (*RegisterScheduler, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultRegisterSchedule
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}

	location := time.UTC
	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", config.Timezone, err)
		}
		location = loc
	}

	s := &RegisterScheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		archiver: archiver,
		config:   config,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(config.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid register schedule %q: %w", config.Schedule, err)
	}
	return s, nil
}

// Start starts the cron loop
func (s *RegisterScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("register scheduler already running")
	}
	s.running = true

	s.logger.Info("Starting register scheduler",
		zap.String("schedule", s.config.Schedule),
		zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job
func (s *RegisterScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.logger.Info("Stopping register scheduler")
	<-s.cron.Stop().Done()
	s.running = false
}

// NextRun returns the next activation time
func (s *RegisterScheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(s.now().In(s.location))
}

func (s *RegisterScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Scheduled register archive failed", zap.Error(err))
	}
}

// RunOnce archives the register of the month before now
func (s *RegisterScheduler) RunOnce(ctx context.Context) (string, error) {
	previous, _ := monthRange(s.now().In(s.location))
	return s.archive(ctx, previous.AddDate(0, -1, 0))
}

// RunMonth archives the register of month (YYYY-MM). The month is read in
// the scheduler's timezone so it covers the same period as a scheduled run.
func (s *RegisterScheduler) RunMonth(ctx context.Context, month string) (string, error) {
	t, err := time.ParseInLocation("2006-01", month, s.location)
	if err != nil {
		return "", fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrInvalidInput, month)
	}
	return s.archive(ctx, t)
}

func (s *RegisterScheduler) archive(ctx context.Context, month time.Time) (string, error) {
	start := time.Now()
	key, err := s.archiver.ArchiveRegister(ctx, month, s.config.Recipients)
	if err != nil {
		return "", err
	}

	s.logger.Info("Register archived",
		zap.String("key", key),
		zap.String("month", month.Format("2006-01")),
		zap.Duration("duration", time.Since(start)))
	return key, nil
}
