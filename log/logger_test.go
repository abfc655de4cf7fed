package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInitialization(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug", level: "DeBuG"},
		{name: "info", level: "iNFo"},
		{name: "warn", level: "WarN"},
		{name: "error", level: "eRRoR"},
		{name: "trace", level: "TraCe"},
		{name: "fatal", level: "FaTAl"},
		{name: "empty", level: ""},
		{name: "bad", level: "BaD", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(&Config{Level: tt.level, NoColoredOutput: true})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger.Zerolog())
		})
	}
}

func TestLoggerHumanFriendly(t *testing.T) {
	logger, err := NewLogger(&Config{HumanFriendly: true, NoColoredOutput: true})
	require.NoError(t, err)
	logger.GetLogger("test").Debug().Msg("hidden at info level")
}

func TestLoggerWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger(&Config{Level: "info"}, buf)
	require.NoError(t, err)

	logger.GetLogger("pool",
		&Field{Name: "address", Value: "10.0.0.1:9042"},
		&Field{Name: "shards", Value: 4},
	).Info().Msg("test")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pool", line["component"])
	assert.Equal(t, "10.0.0.1:9042", line["address"])
	assert.Equal(t, float64(4), line["shards"])
	assert.Equal(t, "test", line["message"])
	assert.Contains(t, line, "package")
}

func TestLoggerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger(&Config{Level: "warn"}, buf)
	require.NoError(t, err)

	logger.Zerolog().Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Zerolog().Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	// Without a logger in context the component logger is disabled.
	ComponentLogger(ctx, "pool").Info().Msg("nowhere")

	logger, err := NewLogger(DefaultConfig())
	require.NoError(t, err)

	ctx, err = NewContext(ctx, logger)
	require.NoError(t, err)
	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, ComponentLogger(ctx, "pool"))

	_, err = NewContext(ctx, logger)
	require.ErrorIs(t, err, ErrDuplicateLogger)
}

func TestSplitCallerName(t *testing.T) {
	pkg, fn := splitCallerName("github.com/soldatov-s/go-cqlpool/pool.(*Pool).Borrow")
	assert.Equal(t, "github.com/soldatov-s/go-cqlpool/pool", pkg)
	assert.Equal(t, "(*Pool).Borrow", fn)

	pkg, fn = splitCallerName("main.main")
	assert.Equal(t, "main", pkg)
	assert.Equal(t, "main", fn)
}
