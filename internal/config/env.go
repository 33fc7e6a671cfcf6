package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Env holds the settings that may be overridden from the process
// environment. Zero values leave the file configuration untouched.
type Env struct {
	Port      int    `env:"PORT"`
	LogFormat string `env:"STARBOT_LOG_FORMAT"`
	LogLevel  string `env:"STARBOT_LOG_LEVEL"`
}

// ApplyEnv overlays environment settings on top of c. A nil lookuper reads
// the real process environment.
func (c *Config) ApplyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	if env.Port != 0 {
		if err := validatePort(env.Port); err != nil {
			return err
		}
		c.Server.Port = env.Port
	}
	if env.LogFormat != "" {
		c.Logging.Format = env.LogFormat
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}

	return nil
}
