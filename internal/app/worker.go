package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"hr-leave/internal/config"
	"hr-leave/internal/jobs"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/messaging/kafka/producer"
	"hr-leave/internal/observability"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/shared/connection"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and processes background jobs, including the scheduled
// year-end carry-over, until SIGINT/SIGTERM.
func RunWorker(cfg *config.Config, metrics *observability.Metrics) error {
	logger := zap.L().Named("app.worker")

	infra, err := Connect(cfg, false)
	if err != nil {
		return err
	}
	defer infra.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBrokers, cfg.DBRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	modules, err := NewModules(infra, metrics, audit.NewStdoutLogger(), nil)
	if err != nil {
		return err
	}

	cron, err := jobs.CarryOverSchedule(cfg.CarryOverCron, cfg.CarryOverCompanies)
	if err != nil {
		return err
	}
	carryOverJob := jobs.NewCarryOverJob(modules.CarryOver, metrics, logger)
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynqRedisOpt(cfg),
		Concurrency: cfg.JobConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCarryOver, Handler: carryOverJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxRepo := kafka.NewOutboxRepository(infra.SQLDB)
	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		metrics,
		logger,
		cfg.OutboxPollInterval,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("job worker stopped", zap.Error(err))
			return err
		}
	}

	logger.Info("worker shutting down")
	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, asynq.ErrServerClosed) {
		logger.Warn("job worker shutdown", zap.Error(err))
	}

	return nil
}
