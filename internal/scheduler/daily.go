// Package scheduler runs jobs at a fixed local wall-clock time every day.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"taskbot/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work, e.g. *service.DigestJob.
type Job interface {
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// DailySpec converts "HH:MM" into a five-field cron expression.
func DailySpec(clock string) (string, error) {
	h, m, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// ScheduleDaily registers job to run every day at clock. A failing run is
// logged; the next day's run is unaffected.
func (s *Scheduler) ScheduleDaily(name, clock string, job Job) error {
	expr, err := DailySpec(clock)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	_, err = s.cron.AddFunc(expr, func() {
		start := time.Now()
		s.logger.Info("Running scheduled job", zap.String("job", name))
		if err := job.Run(s.ctx); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("Scheduled job completed",
			zap.String("job", name),
			zap.Duration("took", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	s.logger.Info("Job scheduled",
		zap.String("job", name),
		zap.String("at", clock),
		zap.String("cron", expr),
		zap.String("timezone", s.cron.Location().String()),
	)
	return nil
}

// Next reports when the earliest registered job fires next.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
	}
	s.cancel()
}
