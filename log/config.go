package log

import "github.com/rs/zerolog"

type Config struct {
	// HumanFriendly enable writes log in human-friendly format to Out
	HumanFriendly bool `envconfig:"optional"`
	// NoColoredOutput forces logger to output things without
	// shell colorcodes.
	NoColoredOutput bool `envconfig:"optional"`
	// Show trace information (file name, line number, function name)?
	WithTrace bool `envconfig:"optional"`
	// Level is a logger's loglevel. Possible values: "DEBUG",
	// "INFO", "WARN", "ERROR", "FATAL", "TRACE".
	// Case-insensitive value.
	// Default: "info"
	Level string `envconfig:"optional"`
}

// SetDefault checks logger options. If required field is empty - it will
// be filled with some default value.
func (c *Config) SetDefault() *Config {
	cfgCopy := *c

	if cfgCopy.Level == "" {
		cfgCopy.Level = zerolog.InfoLevel.String()
	}

	return &cfgCopy
}

func DefaultConfig() *Config {
	return &Config{
		NoColoredOutput: true,
		Level:           zerolog.InfoLevel.String(),
	}
}
