package httpserver

import "time"

// Config configures the ops server. An empty Addr disables it.
type Config struct {
	Addr            string        `env:"OPS_ADDR" envDefault:":8081"`
	ReadTimeout     time.Duration `env:"OPS_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"OPS_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"OPS_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"OPS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether the ops server should run.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// NewFromConfig creates a new Server from the provided Config.
// Zero values keep the package defaults.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := []Option{
		WithAddr(cfg.Addr),
		WithReadTimeout(cfg.ReadTimeout),
		WithWriteTimeout(cfg.WriteTimeout),
		WithIdleTimeout(cfg.IdleTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	return New(append(configOpts, opts...)...)
}
