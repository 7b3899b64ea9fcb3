package consumer

import (
	"context"
	"encoding/json"
	"time"

	"hr-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// initRetryDelay grows linearly and caps at ten seconds.
var initRetryDelay = func(attempt int) time.Duration {
	return time.Duration(min(attempt, 10)) * time.Second
}

// BalanceInitializer opens the leave balance of a newly hired employee. It must be idempotent.
type BalanceInitializer interface {
	InitializeBalance(ctx context.Context, companyID, employeeID string) error
}

func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	initializer BalanceInitializer,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			continue
		}

		handleEmployeeLifecycle(ctx, reader, msg, initializer, log)
	}
}

func handleEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	msg kafkago.Message,
	initializer BalanceInitializer,
	log *zap.Logger,
) {
	var event events.EmployeeCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode employee lifecycle event failed", zap.Error(err))
		_ = reader.CommitMessages(ctx, msg)
		return
	}

	// Other lifecycle events share the topic.
	if event.EventType != events.EmployeeCreated {
		_ = reader.CommitMessages(ctx, msg)
		return
	}

	// The group offset only moves forward, so the message is retried in place until it succeeds.
	// On shutdown it stays uncommitted and the group resumes from it.
	if !initializeWithRetry(ctx, initializer, event, log) {
		return
	}

	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit employee lifecycle message failed", zap.Error(err))
		return
	}

	log.Info("leave balance initialized from employee_created event",
		zap.String("employee_id", event.EmployeeID),
		zap.String("company_id", event.CompanyID),
	)
}

func initializeWithRetry(
	ctx context.Context,
	initializer BalanceInitializer,
	event events.EmployeeCreatedEvent,
	log *zap.Logger,
) bool {
	for attempt := 1; ; attempt++ {
		err := initializer.InitializeBalance(ctx, event.CompanyID, event.EmployeeID)
		if err == nil {
			return true
		}
		delay := initRetryDelay(attempt)
		log.Warn("initialize leave balance failed, retrying",
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("employee lifecycle consumer stopped before balance init succeeded",
				zap.String("employee_id", event.EmployeeID),
			)
			return false
		case <-timer.C:
		}
	}
}
