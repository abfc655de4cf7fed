package log

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// LevelCounterHook counts messages logged at or above a level, the counter
// vector is labelled by level name.
type LevelCounterHook struct {
	min     zerolog.Level
	counter *prometheus.CounterVec
}

func NewLevelCounterHook(counter *prometheus.CounterVec, min zerolog.Level) *LevelCounterHook {
	return &LevelCounterHook{min: min, counter: counter}
}

func (h *LevelCounterHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level < h.min || level >= zerolog.NoLevel {
		return
	}

	h.counter.WithLabelValues(level.String()).Inc()
}
