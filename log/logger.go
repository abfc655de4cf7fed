// Package log builds zerolog loggers with metrics hooks and keeps them in
// context.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/soldatov-s/go-cqlpool/base"
)

const metricsNamespace = "logger"

// Logger is a zerolog logger counting its warnings and errors.
type Logger struct {
	zerolog zerolog.Logger
	*base.MetricsStorage

	messages *prometheus.CounterVec
}

func NewLogger(config *Config) (*Logger, error) {
	return newLogger(config, nil)
}

func newLogger(config *Config, out io.Writer) (*Logger, error) {
	config = config.SetDefault()

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return nil, errors.Wrap(err, "parse level")
	}

	if out == nil {
		out = buildLoggerOutput(config.HumanFriendly, config.NoColoredOutput)
	}

	logger := &Logger{MetricsStorage: base.NewMetricsStorage()}
	logger.messages, err = logger.GetMetrics().AddCounterVec(metricsNamespace, "messages total",
		"How many warnings and errors were logged.", nil, []string{"level"})
	if err != nil {
		return nil, errors.Wrap(err, "add counter metric")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger.zerolog = zerolog.New(out).Level(level).With().Timestamp().Logger().
		Hook(NewTracingHook(config.WithTrace)).
		Hook(NewLevelCounterHook(logger.messages, zerolog.WarnLevel))

	return logger, nil
}

func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zerolog
}

// GetLogger returns a child logger for the named component with the
// additional fields attached.
func (l *Logger) GetLogger(name string, fields ...*Field) *zerolog.Logger {
	return withFields(l.zerolog.With().Str("component", name), fields)
}

func withFields(c zerolog.Context, fields []*Field) *zerolog.Logger {
	for _, f := range fields {
		c = c.Interface(f.Name, f.Value)
	}

	child := c.Logger()
	return &child
}

var levelLabels = map[string]string{
	"trace": "TRACE",
	"debug": "DEBUG",
	"info":  "INFO ",
	"warn":  "WARN ",
	"error": "ERROR",
	"fatal": "FATAL",
	"panic": "PANIC",
}

func buildLoggerOutput(humanFriendly, noColor bool) io.Writer {
	if !humanFriendly {
		return os.Stdout
	}

	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			if label, ok := levelLabels[level]; ok {
				level = label
			}
			return fmt.Sprintf("| %s |", level)
		},
	}
}
