package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hr-leave/internal/config"
	"hr-leave/internal/events"
	"hr-leave/internal/messaging/kafka/consumer"
	"hr-leave/internal/shared/audit"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer opens the leave balance of every employee announced on the employee lifecycle topic.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	infra, err := Connect(cfg, false)
	if err != nil {
		return err
	}
	defer infra.Close()

	modules, err := NewModules(infra, nil, audit.NewStdoutLogger(), nil)
	if err != nil {
		return err
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          events.EmployeeLifecycleTopic,
		GroupID:        cfg.KafkaConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeEmployeeLifecycle(ctx, reader, modules.Initializer, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
