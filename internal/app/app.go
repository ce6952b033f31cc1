// Package app wires configuration into the settings gate and the
// prioritization engine. Both binaries build their object graph through it.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/transit-complaints/backend/internal/ai"
	"github.com/transit-complaints/backend/internal/config"
	"github.com/transit-complaints/backend/internal/db"
	"github.com/transit-complaints/backend/internal/priority"
	"github.com/transit-complaints/backend/internal/settings"
)

// NewLogger returns the base logger at cfg.LogLevel. Unknown levels mean info.
func NewLogger(cfg config.Config, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out zerolog.Logger
	if cfg.Env == "dev" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		out = zerolog.New(os.Stderr)
	}
	return out.Level(level).With().Timestamp().Str("service", service).Logger()
}

// SettingsStore picks the backing store named by SETTINGS_STORE. The returned
// close func releases whatever the store opened on its own; it is never nil.
func SettingsStore(ctx context.Context, cfg config.Config, store *db.Store, logger zerolog.Logger) (settings.Store, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.SettingsStore)) {
	case "", "postgres":
		if store == nil {
			return nil, noop, fmt.Errorf("settings store postgres needs DATABASE_URL")
		}
		return store.Settings(), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, eris.Wrapf(err, "redis ping %s", cfg.RedisAddr)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("settings stored in redis")
		return settings.NewRedisStore(client), func() { _ = client.Close() }, nil
	case "memory":
		logger.Warn().Msg("settings kept in memory, changes are lost on restart")
		return settings.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown SETTINGS_STORE: %s (supported: postgres, redis, memory)", cfg.SettingsStore)
	}
}

// NewEngine builds the classification client and the engine around it. A
// client that cannot be built is logged and treated as absent. observer may
// be nil.
func NewEngine(ctx context.Context, cfg config.Config, flags settings.FlagReader, observer priority.Observer, logger zerolog.Logger) *priority.Engine {
	client, err := ai.NewCompleter(ctx, ai.Config{
		Provider: cfg.AIProvider,
		APIKey:   cfg.AIAPIKey,
		Model:    cfg.AIModel,
		BaseURL:  cfg.AIBaseURL,
		Timeout:  cfg.AITimeout,
	})
	if err != nil {
		logger.Error().Err(err).Str("provider", cfg.AIProvider).Msg("AI client not created")
		client = nil
	}
	return priority.New(flags, client,
		priority.WithLogger(logger),
		priority.WithTimeout(cfg.AITimeout),
		priority.WithRateLimit(cfg.AIRateLimit, cfg.AIRateBurst),
		priority.WithObserver(observer),
	)
}
