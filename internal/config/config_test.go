package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("CREDIT_POLICY", "enforce_limit")
	t.Setenv("STOCK_ALERT_THROTTLE", "30m")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "enforce_limit", cfg.CreditPolicy)
	assert.Equal(t, 30*time.Minute, cfg.StockAlertThrottle)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "/tmp/pos/receipts", cfg.ReceiptStoragePath)
	assert.False(t, cfg.IsProduction())
}
