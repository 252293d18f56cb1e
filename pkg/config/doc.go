// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - The first Load in the process reads ENV_FILE (or ./.env when unset).
//   - Structs are populated from `env` / `envDefault` tags.
//   - Each configuration type is parsed once and cached; ResetCache clears
//     the cache in tests.
//
// Every package in this module declares its own Config struct next to the
// code that consumes it (redis.Config, email.Config, queue.Config,
// httpserver.Config), and the binary loads them one by one:
//
//	var qcfg queue.Config
//	config.MustLoad(&qcfg)
//
// Errors are sentinel values (ErrParsingConfig, ErrNilPointer, ...) joined
// with the underlying cause, so callers can match them with errors.Is.
package config
