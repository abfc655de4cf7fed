package health

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/soldatov-s/go-cqlpool/pool/driver"
)

var errRefused = errors.New("connection refused")

type countingDialer struct {
	calls atomic.Int32
	err   error
}

func (d *countingDialer) Dial(_ context.Context, _, _ int) (driver.Conn, error) {
	d.calls.Inc()
	return nil, d.err
}

func TestConfig_SetDefault(t *testing.T) {
	cfg := (&Config{}).SetDefault()
	assert.Equal(t, uint32(defaultMaxFailures), cfg.MaxFailures)
	assert.Equal(t, defaultOpenTimeout, cfg.OpenTimeout)
	assert.Equal(t, defaultInterval, cfg.Interval)

	cfg = (&Config{MaxFailures: 7}).SetDefault()
	assert.Equal(t, uint32(7), cfg.MaxFailures)
}

func TestBreaker_TripsOnTransientFailures(t *testing.T) {
	b := NewBreaker(context.Background(), "10.0.0.1:9042", &Config{MaxFailures: 2, OpenTimeout: time.Hour})
	d := &countingDialer{err: errRefused}
	dialer := b.Dialer(d)

	require.True(t, b.CanReconnectNow())

	for i := 0; i < 2; i++ {
		_, err := dialer.Dial(context.Background(), 0, 0)
		require.ErrorIs(t, err, errRefused)
	}

	assert.False(t, b.CanReconnectNow())
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := dialer.Dial(context.Background(), 0, 0)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, driver.IsFatal(err))
	assert.Equal(t, int32(2), d.calls.Load(), "open breaker must not reach the dialer")
}

func TestBreaker_FatalErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(context.Background(), "10.0.0.1:9042", &Config{MaxFailures: 1, OpenTimeout: time.Hour})
	d := &countingDialer{err: driver.NewDialError(driver.KindAuthentication, errors.New("bad password"))}
	dialer := b.Dialer(d)

	for i := 0; i < 3; i++ {
		_, err := dialer.Dial(context.Background(), 0, 0)
		require.ErrorIs(t, err, driver.ErrAuthentication)
	}

	assert.True(t, b.CanReconnectNow())
	assert.Equal(t, int32(3), d.calls.Load())
}

func TestBreaker_CanceledDialsExcluded(t *testing.T) {
	b := NewBreaker(context.Background(), "10.0.0.1:9042", &Config{MaxFailures: 1, OpenTimeout: time.Hour})
	d := &countingDialer{err: context.Canceled}

	_, err := b.Dialer(d).Dial(context.Background(), 0, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, b.CanReconnectNow())
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b := NewBreaker(context.Background(), "10.0.0.1:9042", &Config{MaxFailures: 1, OpenTimeout: 20 * time.Millisecond})
	d := &countingDialer{err: errRefused}
	dialer := b.Dialer(d)

	_, err := dialer.Dial(context.Background(), 0, 0)
	require.Error(t, err)
	require.False(t, b.CanReconnectNow())

	assert.Eventually(t, b.CanReconnectNow, time.Second, 5*time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, b.State())

	d.err = nil
	_, err = dialer.Dial(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
