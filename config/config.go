// Package config loads the pool configuration from the environment.
package config

import (
	"github.com/pkg/errors"
	"github.com/vrischmann/envconfig"

	"github.com/soldatov-s/go-cqlpool/health"
	"github.com/soldatov-s/go-cqlpool/log"
	"github.com/soldatov-s/go-cqlpool/pool"
)

const DefaultPrefix = "CQLPOOL"

// Config is the whole configuration of a node pool. With the default
// prefix the idle timeout is read from CQLPOOL_POOL_IDLE_TIMEOUT.
type Config struct {
	Pool    pool.Options
	Breaker health.Config
	Logger  log.Config
}

// SetDefault fills empty fields with default values.
func (c *Config) SetDefault() *Config {
	cfgCopy := *c
	cfgCopy.Pool = *c.Pool.SetDefault()
	cfgCopy.Breaker = *c.Breaker.SetDefault()
	cfgCopy.Logger = *c.Logger.SetDefault()

	return &cfgCopy
}

// Parse fills structure, which must be a pointer to a struct, from the
// environment variables starting with prefix. Every field is optional.
func Parse(prefix string, structure interface{}) error {
	if err := envconfig.InitWithOptions(structure, envconfig.Options{
		Prefix:      prefix,
		AllOptional: true,
	}); err != nil {
		return errors.Wrap(err, "parse environment")
	}

	return nil
}

// Load parses Config with prefix and applies defaults.
func Load(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := Parse(prefix, cfg); err != nil {
		return nil, err
	}

	cfg = cfg.SetDefault()
	if err := cfg.Pool.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate pool options")
	}

	return cfg, nil
}
