package audit

import (
	"context"
	"time"

	"hr-leave/internal/shared/contextutil"

	"go.uber.org/zap"
)

type Log struct {
	Action  string
	Message string
	Meta    map[string]any
}

type Logger interface {
	Log(ctx context.Context, entry Log)
}

// StdoutLogger writes audit entries through the "audit" zap logger.
type StdoutLogger struct {
	logger *zap.Logger
}

func NewStdoutLogger(logger ...*zap.Logger) *StdoutLogger {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &StdoutLogger{logger: l.Named("audit")}
}

func (l *StdoutLogger) Log(ctx context.Context, entry Log) {
	md := contextutil.ExtractMetadata(ctx)
	l.logger.Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.String("request_id", md.RequestID),
		zap.String("actor_id", md.EmployeeID),
		zap.Any("meta", entry.Meta),
	)
}

type nopLogger struct{}

func (nopLogger) Log(context.Context, Log) {}

// Nop discards every entry.
func Nop() Logger { return nopLogger{} }
