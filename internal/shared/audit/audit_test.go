package audit

import (
	"context"
	"testing"

	"hr-leave/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewStdoutLogger(zap.New(core))

	ctx := contextutil.WithRequestID(context.Background(), "rid-9")
	ctx = contextutil.WithEmployeeID(ctx, "emp-7")
	l.Log(ctx, Log{Action: "LEAVE_APPROVED", Message: "leave approved", Meta: map[string]any{"leave_id": "l-1"}})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "audit", entries[0].LoggerName)
		assert.Equal(t, "LEAVE_APPROVED", fields["action"])
		assert.Equal(t, "rid-9", fields["request_id"])
		assert.Equal(t, "emp-7", fields["actor_id"])
	}
}
