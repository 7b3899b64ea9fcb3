package contextutil_test

import (
	"context"
	"testing"

	"hr-leave/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExtractMetadata(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "rid-1")
	ctx = contextutil.WithEmployeeID(ctx, "emp-1")

	md := contextutil.ExtractMetadata(ctx)

	assert.Equal(t, "rid-1", md.RequestID)
	assert.Equal(t, "emp-1", md.EmployeeID)
}

func TestGetLogger(t *testing.T) {
	t.Run("falls back to default", func(t *testing.T) {
		def := zap.NewExample()
		assert.Same(t, def, contextutil.GetLogger(context.Background(), def))
	})

	t.Run("never nil", func(t *testing.T) {
		assert.NotNil(t, contextutil.GetLogger(context.Background(), nil))
	})

	t.Run("request logger wins", func(t *testing.T) {
		reqLogger := zap.NewExample()
		ctx := contextutil.WithLogger(context.Background(), reqLogger)
		assert.Same(t, reqLogger, contextutil.GetLogger(ctx, zap.NewNop()))
	})
}
