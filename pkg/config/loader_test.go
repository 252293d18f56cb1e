package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/config"
)

type defaultsConfig struct {
	Name    string `env:"STREAMQ_TEST_NAME" envDefault:"streamq"`
	Workers int    `env:"STREAMQ_TEST_WORKERS" envDefault:"2"`
}

type overrideConfig struct {
	Name    string `env:"STREAMQ_TEST_OVERRIDE_NAME" envDefault:"streamq"`
	Workers int    `env:"STREAMQ_TEST_OVERRIDE_WORKERS" envDefault:"2"`
}

type cachedConfig struct {
	Value string `env:"STREAMQ_TEST_CACHED" envDefault:"first"`
}

type requiredConfig struct {
	Value string `env:"STREAMQ_TEST_REQUIRED,required"`
}

type fileConfig struct {
	Value string `env:"STREAMQ_TEST_FILE_VALUE"`
	Int   int    `env:"STREAMQ_TEST_FILE_INT"`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "streamq", cfg.Name)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STREAMQ_TEST_OVERRIDE_NAME", "mailer")
	t.Setenv("STREAMQ_TEST_OVERRIDE_WORKERS", "8")
	config.ResetCache()

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "mailer", cfg.Name)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.ResetCache()

	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	t.Setenv("STREAMQ_TEST_CACHED", "second")

	var again cachedConfig
	require.NoError(t, config.Load(&again))
	assert.Equal(t, "first", again.Value, "cached value must be returned")

	config.ResetCache()

	var reloaded cachedConfig
	require.NoError(t, config.Load(&reloaded))
	assert.Equal(t, "second", reloaded.Value)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("STREAMQ_TEST_REQUIRED")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("STREAMQ_TEST_REQUIRED", "present")
	require.NoError(t, config.Load(&cfg), "failed parses must not be cached")
	assert.Equal(t, "present", cfg.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("STREAMQ_TEST_REQUIRED")

	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadEnv(t *testing.T) {
	os.Unsetenv("STREAMQ_TEST_FILE_VALUE")
	os.Unsetenv("STREAMQ_TEST_FILE_INT")
	t.Cleanup(func() {
		os.Unsetenv("STREAMQ_TEST_FILE_VALUE")
		os.Unsetenv("STREAMQ_TEST_FILE_INT")
	})
	config.ResetCache()

	require.NoError(t, config.LoadEnv("testdata/.env.test"))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from_file", cfg.Value)
	assert.Equal(t, 7, cfg.Int)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/does-not-exist.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv("testdata/does-not-exist.env") })
}
