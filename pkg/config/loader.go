package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvFileVariable names the variable that may point to an alternative .env file.
const EnvFileVariable = "ENV_FILE"

type cacheEntry struct {
	once  sync.Once
	value any
	err   error
}

var (
	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]*cacheEntry)

	dotenvOnce sync.Once
)

// LoadEnv reads the given .env files into the process environment.
// Variables already present in the environment win over file values,
// and earlier files win over later ones.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(err)
	}
}

// Load parses environment variables into v using `env` struct tags.
//
// The first call in the process loads the file named by ENV_FILE, or ./.env
// when the variable is unset; a missing default file is not an error. Each
// configuration type is parsed once and served from cache afterwards:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(loadDefaultEnvFile)

	t := reflect.TypeOf(v).Elem()

	cacheMu.Lock()
	entry, ok := cache[t]
	if !ok {
		entry = &cacheEntry{}
		cache[t] = entry
	}
	cacheMu.Unlock()

	entry.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			entry.err = errors.Join(ErrParsingConfig, err)
			return
		}
		entry.value = parsed
	})

	if entry.err != nil {
		// Failed parses are not cached so a fixed environment can be retried.
		cacheMu.Lock()
		if cache[t] == entry {
			delete(cache, t)
		}
		cacheMu.Unlock()
		return entry.err
	}

	cached, ok := entry.value.(T)
	if !ok {
		return ErrConfigNotLoaded
	}
	*v = cached
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use it for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration %T: %v", v, err))
	}
}

// ResetCache drops every cached configuration so the next Load re-parses
// the environment. Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	cache = make(map[reflect.Type]*cacheEntry)
	cacheMu.Unlock()
}

func loadDefaultEnvFile() {
	if path := os.Getenv(EnvFileVariable); path != "" {
		_ = godotenv.Load(path)
		return
	}
	// The default file is optional.
	_ = godotenv.Load()
}
