package health

import "time"

const (
	defaultMaxFailures = 3
	defaultOpenTimeout = 5 * time.Second
	defaultInterval    = time.Minute
)

type Config struct {
	// MaxFailures is a number of consecutive failed dials after which the
	// node refuses reconnection.
	// Default: 3
	MaxFailures uint32 `envconfig:"optional"`
	// OpenTimeout is a time the node stays refused before a trial dial is
	// allowed.
	// Default: 5s
	OpenTimeout time.Duration `envconfig:"optional"`
	// Interval is a cyclic period of the closed state to clear failure counts.
	// Default: 1m
	Interval time.Duration `envconfig:"optional"`
}

// SetDefault checks breaker options. If required field is empty - it will
// be filled with some default value.
func (c *Config) SetDefault() *Config {
	cfgCopy := *c

	if cfgCopy.MaxFailures == 0 {
		cfgCopy.MaxFailures = defaultMaxFailures
	}

	if cfgCopy.OpenTimeout == 0 {
		cfgCopy.OpenTimeout = defaultOpenTimeout
	}

	if cfgCopy.Interval == 0 {
		cfgCopy.Interval = defaultInterval
	}

	return &cfgCopy
}
