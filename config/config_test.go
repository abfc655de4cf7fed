package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soldatov-s/go-cqlpool/pool"
)

func TestLoad(t *testing.T) {
	t.Setenv("CQLPOOL_POOL_CORE_CONNECTIONS_PER_HOST", "2")
	t.Setenv("CQLPOOL_POOL_MAX_CONNECTIONS_PER_HOST", "6")
	t.Setenv("CQLPOOL_POOL_IDLE_TIMEOUT", "30s")
	t.Setenv("CQLPOOL_BREAKER_MAX_FAILURES", "5")
	t.Setenv("CQLPOOL_LOGGER_LEVEL", "debug")

	cfg, err := Load(DefaultPrefix)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pool.CoreConnectionsPerHost)
	assert.Equal(t, 6, cfg.Pool.MaxConnectionsPerHost)
	assert.Equal(t, 30*time.Second, cfg.Pool.IdleTimeout)
	assert.Equal(t, 1024, cfg.Pool.MaxRequestsPerConnection)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, 5*time.Second, cfg.Breaker.OpenTimeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("CQLPOOL_TEST_EMPTY")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Pool.CoreConnectionsPerHost)
	assert.Equal(t, 8, cfg.Pool.MaxConnectionsPerHost)
	assert.Equal(t, 10*time.Second, cfg.Pool.CleanupInterval)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CQLPOOL_BAD_POOL_CORE_CONNECTIONS_PER_HOST", "4")
	t.Setenv("CQLPOOL_BAD_POOL_MAX_CONNECTIONS_PER_HOST", "2")

	_, err := Load("CQLPOOL_BAD")
	require.ErrorIs(t, err, pool.ErrInvalidOptions)
}

func TestParse_Malformed(t *testing.T) {
	t.Setenv("CQLPOOL_MALFORMED_POOL_IDLE_TIMEOUT", "soon")

	_, err := Load("CQLPOOL_MALFORMED")
	require.Error(t, err)
}
