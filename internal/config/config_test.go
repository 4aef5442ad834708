package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FINBOARD_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.frankfurter.dev", cfg.RateAPIURL)
	assert.Equal(t, "EUR", cfg.DisplayCurrency)
	assert.Equal(t, "0 * * * *", cfg.RateSyncSchedule)
	assert.Equal(t, []string{"EUR", "USD", "GBP", "CHF", "JPY"}, cfg.SyncCurrencies)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FINBOARD_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("DISPLAY_CURRENCY", "USD")
	t.Setenv("SYNC_CURRENCIES", "usd, gbp,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "USD", cfg.DisplayCurrency)
	assert.Equal(t, []string{"USD", "GBP"}, cfg.SyncCurrencies)
}

func TestLoad_InvalidPortRejected(t *testing.T) {
	t.Setenv("FINBOARD_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 8080, DisplayCurrency: "EUR"}
	assert.NoError(t, cfg.Validate())

	cfg.DisplayCurrency = "EURO"
	assert.Error(t, cfg.Validate())

	cfg = &Config{Port: 0, DisplayCurrency: "EUR"}
	assert.Error(t, cfg.Validate())
}
