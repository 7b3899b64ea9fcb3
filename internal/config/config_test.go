package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("CARRY_OVER_COMPANIES", "c-1,c-2")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "3000", cfg.HTTPPort)
		assert.Equal(t, 10*time.Second, cfg.HTTPWriteTimeout)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, []string{"c-1", "c-2"}, cfg.CarryOverCompanies)
		assert.Equal(t, 3*time.Second, cfg.OutboxPollInterval)
		assert.Equal(t, 5*time.Minute, cfg.RBACReloadInterval)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("negative missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("production flag", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("APP_ENV", "production")

		cfg, err := Load()

		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}
