// Package config reads server settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Addr           string        `env:"ADDR" envDefault:":8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
	CatalogFile    string        `env:"CATALOG_FILE"`                 // empty means the embedded catalog
	WSIdleTimeout  time.Duration `env:"WS_IDLE_TIMEOUT" envDefault:"5m"`
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"3s"`
	OutboxSize     int           `env:"OUTBOX_SIZE" envDefault:"32"`
	OriginPatterns []string      `env:"WS_ORIGIN_PATTERNS" envSeparator:","` // extra allowed WebSocket origins
	Rules          engine.Rules
}

// rules mirrors engine.Rules field for field. Unset variables keep the
// engine defaults it is seeded with.
type rules struct {
	InitialLP       int `env:"INITIAL_LP"`
	InitialCore     int `env:"INITIAL_CORE"`
	TurnCoreGain    int `env:"TURN_CORE_GAIN"`
	MaxCore         int `env:"MAX_CORE"`
	DeckSize        int `env:"DECK_SIZE"`
	InitialHandSize int `env:"INITIAL_HAND_SIZE"`
	MaxHandSize     int `env:"MAX_HAND_SIZE"`
	DeckOutDamage   int `env:"DECK_OUT_DAMAGE"`
}

// Load applies .env (if present) and then reads the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(nil)
}

// FromEnv builds a Config from environ, or from the process environment
// when environ is nil. Values that fail to parse are reported together;
// range checks only run once everything parsed.
func FromEnv(environ map[string]string) (Config, error) {
	opts := env.Options{Environment: environ}

	var cfg Config
	r := rules(engine.DefaultRules())
	errs := multierr.Combine(
		flatten(env.ParseWithOptions(&cfg, opts)),
		flatten(env.ParseWithOptions(&r, opts)),
	)
	if errs != nil {
		return Config{}, errs
	}
	cfg.Rules = engine.Rules(r)
	cfg.OriginPatterns = trimList(cfg.OriginPatterns)

	check := func(key string, err error) {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		check("LOG_LEVEL", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		check("LOG_FORMAT", fmt.Errorf("want json or console, got %q", cfg.LogFormat))
	}
	for key, d := range map[string]time.Duration{
		"WS_IDLE_TIMEOUT":  cfg.WSIdleTimeout,
		"WS_WRITE_TIMEOUT": cfg.WSWriteTimeout,
	} {
		if d <= 0 {
			check(key, fmt.Errorf("must be positive, got %s", d))
		}
	}
	for key, n := range map[string]int{
		"OUTBOX_SIZE":   cfg.OutboxSize,
		"INITIAL_LP":    cfg.Rules.InitialLP,
		"MAX_CORE":      cfg.Rules.MaxCore,
		"DECK_SIZE":     cfg.Rules.DeckSize,
		"MAX_HAND_SIZE": cfg.Rules.MaxHandSize,
	} {
		if n <= 0 {
			check(key, fmt.Errorf("must be positive, got %d", n))
		}
	}
	for key, n := range map[string]int{
		"INITIAL_CORE":      cfg.Rules.InitialCore,
		"TURN_CORE_GAIN":    cfg.Rules.TurnCoreGain,
		"INITIAL_HAND_SIZE": cfg.Rules.InitialHandSize,
		"DECK_OUT_DAMAGE":   cfg.Rules.DeckOutDamage,
	} {
		if n < 0 {
			check(key, fmt.Errorf("must not be negative, got %d", n))
		}
	}
	if cfg.Rules.InitialCore > cfg.Rules.MaxCore {
		check("INITIAL_CORE", fmt.Errorf("%d exceeds MAX_CORE %d", cfg.Rules.InitialCore, cfg.Rules.MaxCore))
	}
	if cfg.Rules.InitialHandSize > cfg.Rules.MaxHandSize {
		check("INITIAL_HAND_SIZE", fmt.Errorf("%d exceeds MAX_HAND_SIZE %d", cfg.Rules.InitialHandSize, cfg.Rules.MaxHandSize))
	}

	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

// flatten unpacks env's aggregate so each bad variable is its own error.
func flatten(err error) error {
	var agg env.AggregateError
	if errors.As(err, &agg) {
		return multierr.Combine(agg.Errors...)
	}
	return err
}

func trimList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
