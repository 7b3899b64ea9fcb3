package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(context.Background(), "hr-leave", "", false)
	assert.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
