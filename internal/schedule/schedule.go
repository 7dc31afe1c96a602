// Package schedule runs periodic background jobs of the daemon.
package schedule

import (
	"context"
	"fmt"
	"time"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs one job on a cron schedule. Standard five-field
// expressions and descriptors such as "@every 30m" are accepted.
type Scheduler struct {
	cron   *rcron.Cron
	spec   string
	entry  rcron.EntryID
	logger *zap.Logger
}

// New registers job under spec. An empty spec yields a disabled scheduler.
func New(spec string, job func(), logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{spec: spec, logger: logger}
	if spec == "" {
		return s, nil
	}
	s.cron = rcron.New(rcron.WithChain(rcron.Recover(cronLogger{logger})))
	id, err := s.cron.AddFunc(spec, func() {
		logger.Debug("scheduled job running", zap.String("schedule", spec))
		job()
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.cron != nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	if s.cron == nil {
		s.logger.Info("scheduler disabled")
		return
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.spec), zap.Time("next", s.Next()))
}

// Next returns the next activation, zero when disabled or not started.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Stop halts the schedule and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("stop timeout waiting for running job")
	}
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
