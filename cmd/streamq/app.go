package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/streamq/pkg/config"
	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/redis"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// Stream backends selectable with STREAM_BACKEND.
const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

var errUnknownBackend = errors.New("unknown stream backend")

// appConfig holds process-level settings. Component settings live in each
// package's own Config.
type appConfig struct {
	AppName  string `env:"APP_NAME" envDefault:"streamq"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Backend  string `env:"STREAM_BACKEND" envDefault:"redis"`
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{logger.WithEnvironment(cfg.Env, cfg.AppName)}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)
	return log
}

// openLog connects the configured backend. The returned close function
// releases the connection.
func openLog(ctx context.Context, cfg appConfig) (stream.Log, func(context.Context) error, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case backendMemory:
		return stream.NewMemoryLog(), nil, func() error { return nil }, nil
	case backendRedis, "":
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return stream.NewRedisLog(client), redis.Healthcheck(client), client.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
}
