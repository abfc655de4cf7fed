// Package health tracks whether a node accepts new connections.
package health

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"

	"github.com/soldatov-s/go-cqlpool/log"
	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

// Breaker is a node-level circuit breaker. It counts dial outcomes and,
// after too many consecutive transient failures, refuses reconnection until
// the open timeout elapses.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[driver.Conn]
}

// NewBreaker creates a breaker for the node at address.
func NewBreaker(ctx context.Context, address string, cfg *Config) *Breaker {
	cfg = cfg.SetDefault()
	logger := log.ComponentLogger(ctx, "health", &log.Field{Name: "address", Value: address})

	settings := gobreaker.Settings{
		Name:        address,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("node reconnection state changed")
		},
		// The node answered, the failure is about the client configuration.
		IsSuccessful: func(err error) bool {
			return err == nil || driver.IsFatal(err)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[driver.Conn](settings)}
}

// CanReconnectNow reports whether new connections may be opened.
func (b *Breaker) CanReconnectNow() bool {
	return b.cb.State() != gobreaker.StateOpen
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Dialer wraps d so that every dial outcome feeds the breaker. While the
// breaker is open dials fail fast with a transient error.
func (b *Breaker) Dialer(d driver.Dialer) driver.Dialer {
	return driver.DialerFunc(func(ctx context.Context, shardID, shardCount int) (driver.Conn, error) {
		conn, err := b.cb.Execute(func() (driver.Conn, error) {
			return d.Dial(ctx, shardID, shardCount)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, driver.NewDialError(driver.KindTransient, err)
		}
		// A fatal error counts as success for the breaker and conn is nil.
		return conn, err
	})
}
