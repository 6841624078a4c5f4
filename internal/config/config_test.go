package config

import (
	"testing"
	"time"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(map[string]string{"HOME": "/tmp"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.CatalogFile)
	assert.Equal(t, 5*time.Minute, cfg.WSIdleTimeout)
	assert.Equal(t, 3*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 32, cfg.OutboxSize)
	assert.Empty(t, cfg.OriginPatterns)
	assert.Equal(t, engine.DefaultRules(), cfg.Rules)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(map[string]string{
		"ADDR":               ":9000",
		"LOG_FORMAT":         "console",
		"LOG_LEVEL":          "debug",
		"WS_IDLE_TIMEOUT":    "90s",
		"INITIAL_LP":         "8000",
		"DECK_SIZE":          "30",
		"DECK_OUT_DAMAGE":    "0",
		"CATALOG_FILE":       "/etc/cards.yaml",
		"WS_ORIGIN_PATTERNS": "localhost:*, example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 90*time.Second, cfg.WSIdleTimeout)
	assert.Equal(t, 8000, cfg.Rules.InitialLP)
	assert.Equal(t, 30, cfg.Rules.DeckSize)
	assert.Equal(t, 0, cfg.Rules.DeckOutDamage)
	assert.Equal(t, "/etc/cards.yaml", cfg.CatalogFile)
	assert.Equal(t, []string{"localhost:*", "example.com"}, cfg.OriginPatterns)
}

func TestFromEnv_ReportsEveryProblem(t *testing.T) {
	_, err := FromEnv(map[string]string{
		"LOG_LEVEL":    "loud",
		"LOG_FORMAT":   "xml",
		"OUTBOX_SIZE":  "0",
		"DECK_SIZE":    "-1",
		"INITIAL_CORE": "20",
	})
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 5)
	for _, key := range []string{"LOG_LEVEL", "LOG_FORMAT", "OUTBOX_SIZE", "DECK_SIZE", "INITIAL_CORE"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestFromEnv_ParseErrorsNameTheField(t *testing.T) {
	_, err := FromEnv(map[string]string{
		"INITIAL_LP":      "lots",
		"WS_IDLE_TIMEOUT": "soon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InitialLP")
	assert.Contains(t, err.Error(), "WSIdleTimeout")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := NewLogger(Config{LogLevel: "warn", LogFormat: format})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(-1))
	}
}
