package devtools

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
)

// Config toggles devtools from the environment.
type Config struct {
	Enabled bool   `env:"GO_STORE_DEVTOOLS" envDefault:"false"`
	Level   string `env:"GO_STORE_DEVTOOLS_LEVEL" envDefault:"debug"`
	Trace   bool   `env:"GO_STORE_DEVTOOLS_TRACE" envDefault:"false"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	return parse(env.Options{})
}

// LoadConfigFrom reads Config from environ instead of the process
// environment.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("devtools: load config: %w", err)
	}
	if _, err := cfg.level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) level() (zapcore.Level, error) {
	if c.Level == "" {
		return zapcore.DebugLevel, nil
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.DebugLevel, fmt.Errorf("devtools: invalid level %q: %w", c.Level, err)
	}
	return level, nil
}
