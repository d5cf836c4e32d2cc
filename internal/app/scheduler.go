package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSpec - каждые 5 минут
const DefaultSweepSpec = "*/5 * * * *"

// Sweeper завершает прошедшие встречи
type Sweeper interface {
	CompleteEnded(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	spec     string
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewScheduler создаёт новый планировщик; spec в формате cron из 5 полей
func NewScheduler(sweeper Sweeper, spec string, logger *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		spec:     spec,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start регистрирует задачи и запускает cron. Первый проход выполняется сразу.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.String("sweep_spec", s.spec))

	jobCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-s.stopChan:
		case <-ctx.Done():
		}
		cancel()
	}()

	if _, err := s.cron.AddFunc(s.spec, func() { s.sweep(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register sweep job: %w", err)
	}

	s.sweep(jobCtx)
	s.cron.Start()
	return nil
}

// Stop останавливает cron и ждёт завершения текущей задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	n, err := s.sweeper.CompleteEnded(ctx)
	if err != nil {
		s.logger.Error("Failed to complete ended meetings", zap.Error(err))
		return
	}

	s.logger.Debug("Completion sweep finished", zap.Int64("completed", n))
}
