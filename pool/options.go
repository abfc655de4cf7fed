package pool

import (
	"time"

	"github.com/pkg/errors"
)

const (
	defaultCoreConnectionsPerHost   = 1
	defaultMaxConnectionsPerHost    = 8
	defaultMaxRequestsPerConnection = 1024
	defaultNewConnectionThreshold   = 800
	defaultIdleTimeout              = 120 * time.Second
	defaultCreationWorkers          = 4
	defaultCleanupInterval          = 10 * time.Second
	// shardDialAttemptsPerShard bounds dialing for a given shard when the
	// node ignores the shard hint.
	shardDialAttemptsPerShard = 4
)

// Options are the pooling options of a single node.
type Options struct {
	// Lazy opens no connection at init, each shard gets its first connection
	// on its first borrow. CoreConnectionsPerHost is ignored.
	Lazy bool `envconfig:"optional"`
	// CoreConnectionsPerHost is a number of connections the pool keeps open
	// regardless of the load.
	// Default: 1
	CoreConnectionsPerHost int `envconfig:"optional"`
	// MaxConnectionsPerHost is a maximum number of open connections.
	// Default: 8
	MaxConnectionsPerHost int `envconfig:"optional"`
	// MaxRequestsPerConnection is a maximum number of simultaneous requests
	// on one connection.
	// Default: 1024
	MaxRequestsPerConnection int `envconfig:"optional"`
	// NewConnectionThreshold is a number of requests on the last connection
	// of a shard after which a new connection is opened.
	// Default: 800
	NewConnectionThreshold int `envconfig:"optional"`
	// IdleTimeout is a time a trashed connection is kept for resurrection
	// before it is closed.
	// Default: 120s
	IdleTimeout time.Duration `envconfig:"optional"`
	// CreationWorkers is a number of goroutines opening connections in
	// the background.
	// Default: 4
	CreationWorkers int `envconfig:"optional"`
	// MaxShardDialAttempts is a number of dials made to obtain a connection
	// on a given shard.
	// Default: 4 x shards count
	MaxShardDialAttempts int `envconfig:"optional"`
	// CleanupInterval is a period of the idle connections cleaner.
	// Default: 10s
	CleanupInterval time.Duration `envconfig:"optional"`
}

// SetDefault checks pool options. If required field is empty - it will
// be filled with some default value.
func (o *Options) SetDefault() *Options {
	optsCopy := *o

	if optsCopy.Lazy {
		optsCopy.CoreConnectionsPerHost = 0
	} else if optsCopy.CoreConnectionsPerHost == 0 {
		optsCopy.CoreConnectionsPerHost = defaultCoreConnectionsPerHost
	}

	if optsCopy.MaxConnectionsPerHost == 0 {
		optsCopy.MaxConnectionsPerHost = defaultMaxConnectionsPerHost
		if optsCopy.MaxConnectionsPerHost < optsCopy.CoreConnectionsPerHost {
			optsCopy.MaxConnectionsPerHost = optsCopy.CoreConnectionsPerHost
		}
	}

	if optsCopy.MaxRequestsPerConnection == 0 {
		optsCopy.MaxRequestsPerConnection = defaultMaxRequestsPerConnection
	}

	if optsCopy.NewConnectionThreshold == 0 {
		optsCopy.NewConnectionThreshold = defaultNewConnectionThreshold
		if optsCopy.NewConnectionThreshold > optsCopy.MaxRequestsPerConnection {
			optsCopy.NewConnectionThreshold = optsCopy.MaxRequestsPerConnection * 3 / 4
		}
	}

	if optsCopy.IdleTimeout == 0 {
		optsCopy.IdleTimeout = defaultIdleTimeout
	}

	if optsCopy.CreationWorkers == 0 {
		optsCopy.CreationWorkers = defaultCreationWorkers
	}

	if optsCopy.CleanupInterval == 0 {
		optsCopy.CleanupInterval = defaultCleanupInterval
	}

	return &optsCopy
}

// Validate checks that options are consistent.
func (o *Options) Validate() error {
	switch {
	case o.CoreConnectionsPerHost < 0:
		return errors.Wrapf(ErrInvalidOptions, "core connections %d", o.CoreConnectionsPerHost)
	case o.MaxConnectionsPerHost < 1 || o.MaxConnectionsPerHost < o.CoreConnectionsPerHost:
		return errors.Wrapf(ErrInvalidOptions, "max connections %d with core %d",
			o.MaxConnectionsPerHost, o.CoreConnectionsPerHost)
	case o.MaxRequestsPerConnection < 1:
		return errors.Wrapf(ErrInvalidOptions, "max requests per connection %d", o.MaxRequestsPerConnection)
	case o.NewConnectionThreshold < 0 || o.NewConnectionThreshold > o.MaxRequestsPerConnection:
		return errors.Wrapf(ErrInvalidOptions, "new connection threshold %d", o.NewConnectionThreshold)
	case o.IdleTimeout < 0, o.CleanupInterval < 0:
		return errors.Wrap(ErrInvalidOptions, "negative duration")
	case o.CreationWorkers < 1:
		return errors.Wrapf(ErrInvalidOptions, "creation workers %d", o.CreationWorkers)
	case o.MaxShardDialAttempts < 0:
		return errors.Wrapf(ErrInvalidOptions, "max shard dial attempts %d", o.MaxShardDialAttempts)
	}

	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
