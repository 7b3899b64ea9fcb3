package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hr-leave/internal/leave"
	"hr-leave/internal/observability"
	"hr-leave/internal/shared/apperror"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// CarryOverRunner is satisfied by leave.CarryOverService.
type CarryOverRunner interface {
	Run(ctx context.Context, companyID, actorID string, year int) (leave.CarryOverResult, error)
}

type CarryOverJob struct {
	runner  CarryOverRunner
	metrics *observability.Metrics
	logger  *zap.Logger
	clock   func() time.Time
}

func NewCarryOverJob(runner CarryOverRunner, metrics *observability.Metrics, logger ...*zap.Logger) *CarryOverJob {
	l := zap.L().Named("jobs.carry_over")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("jobs.carry_over")
	}
	return &CarryOverJob{
		runner:  runner,
		metrics: metrics,
		logger:  l,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the clock used to resolve an unset payload year.
func (j *CarryOverJob) WithClock(clock func() time.Time) *CarryOverJob {
	j.clock = clock
	return j
}

func (j *CarryOverJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.runner == nil {
		return errors.New("carry-over job: dependencies not configured")
	}
	var payload CarryOverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		j.logger.Error("decode carry-over payload failed", zap.Error(err))
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	if payload.Year == 0 {
		payload.Year = j.clock().Year() - 1
	}

	tracker := j.metrics.Track(TaskCarryOver)
	defer func() {
		err = tracker.End(err)
	}()

	result, err := j.runner.Run(ctx, payload.CompanyID, payload.ActorID, payload.Year)
	if err != nil {
		// Rejections by the service will not change on retry.
		if apperror.ToHTTP(err).Status < http.StatusInternalServerError {
			j.logger.Warn("carry-over rejected",
				zap.String("company_id", payload.CompanyID),
				zap.Int("year", payload.Year),
				zap.Error(err),
			)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		j.logger.Error("carry-over failed",
			zap.String("company_id", payload.CompanyID),
			zap.Int("year", payload.Year),
			zap.Error(err),
		)
		return err
	}

	fields := []zap.Field{
		zap.String("company_id", payload.CompanyID),
		zap.Int("year", payload.Year),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	}
	if result.Failed > 0 {
		j.logger.Warn("carry-over finished with failures", fields...)
		return nil
	}
	j.logger.Info("carry-over finished", fields...)
	return nil
}
