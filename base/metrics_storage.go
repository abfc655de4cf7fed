package base

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// MetricsStorage keeps the metrics of one component.
type MetricsStorage struct {
	metrics *MapMetricsOptions
}

func NewMetricsStorage() *MetricsStorage {
	return &MetricsStorage{metrics: NewMapMetricsOptions()}
}

func (s *MetricsStorage) GetMetrics() *MapMetricsOptions {
	return s.metrics
}

// Collect refreshes function-driven metrics before a scrape. A failed
// update is logged and does not fail the scrape.
func (s *MetricsStorage) Collect(ctx context.Context) {
	if err := s.metrics.Update(ctx); err != nil {
		zerolog.Ctx(ctx).Err(err).Msg("collect metrics")
	}
}

// Registrate refreshes the metrics once and registers them in register.
func (s *MetricsStorage) Registrate(ctx context.Context, register prometheus.Registerer) error {
	s.Collect(ctx)
	return errors.Wrap(s.metrics.Registrate(register), "registrate metrics")
}
