package server

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/skill-navigator/internal/dashboard"
)

const DefaultRefreshSpec = "@every 10m"

// Scheduler refreshes the dashboard on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	loader *dashboard.Loader
	spec   string
	logger *zap.Logger

	startup sync.WaitGroup
}

func NewScheduler(loader *dashboard.Loader, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec = strings.TrimSpace(spec); spec == "" {
		spec = DefaultRefreshSpec
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		loader: loader,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the refresh job and starts the scheduler. One refresh runs
// right away so the dashboard is populated before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.refresh(ctx)
	}()

	return nil
}

// Stop stops the scheduler and waits for running refreshes to finish,
// the startup one included.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	state := s.loader.Refresh(ctx)
	if state.Err != nil {
		s.logger.Warn("scheduled refresh failed", zap.Error(state.Err))
		return
	}
	s.logger.Debug("scheduled refresh completed", zap.Int("jobs", len(state.Jobs)))
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
