package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	t.Run("success - defaults", func(t *testing.T) {
		cfg, err := GetConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "memory", cfg.StoreDriver)
		assert.Equal(t, 300, cfg.ReplayToleranceSeconds)
		assert.Equal(t, 60, cfg.ReplaySkewSeconds)
		assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 3*time.Second, cfg.StoreTimeout())
		assert.Equal(t, 72*time.Hour, cfg.IdempotencyTTL())
	})

	t.Run("success - environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("REPLAY_TOLERANCE_SECONDS", "120")
		t.Setenv("IDENTITY_WEBHOOK_SECRET", "whsec_abc")

		cfg, err := GetConfig()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.False(t, cfg.IsProduction())
		assert.Equal(t, 120, cfg.ReplayToleranceSeconds)
		assert.Equal(t, "whsec_abc", cfg.Secret("IDENTITY_WEBHOOK_SECRET"))
	})

	t.Run("success - secret under a custom variable", func(t *testing.T) {
		t.Setenv("BILLING_HOOK_SECRET", "rzp-secret")

		cfg, err := GetConfig()
		require.NoError(t, err)

		assert.Equal(t, "rzp-secret", cfg.Secret("BILLING_HOOK_SECRET"))
		assert.Empty(t, cfg.Secret(""))
	})

	t.Run("error - postgres without url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")

		_, err := GetConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_URL")
	})

	t.Run("error - unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")

		_, err := GetConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown STORE_DRIVER")
	})
}
