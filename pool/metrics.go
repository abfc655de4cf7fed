package pool

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soldatov-s/go-cqlpool/base"
)

const metricsPrefix = "cqlpool"

func (p *Pool) buildMetrics() error {
	labels := prometheus.Labels{"address": p.address}
	metrics := p.metrics.GetMetrics()

	gauges := []struct {
		postfix string
		help    string
		value   func() int
	}{
		{postfix: "open connections", help: "Number of open connections.", value: p.Opened},
		{postfix: "trashed connections", help: "Number of trashed connections.", value: p.Trashed},
		{postfix: "in flight", help: "Number of borrowed request slots.", value: p.InFlight},
		{postfix: "pending borrows", help: "Number of queued borrows.", value: p.PendingBorrows},
	}

	for _, g := range gauges {
		value := g.value
		if _, err := metrics.AddMetricGauge(metricsPrefix, g.postfix, g.help, labels,
			func(ctx context.Context) (float64, error) {
				return float64(value()), nil
			}); err != nil {
			return errors.Wrap(err, "add gauge metric")
		}
	}

	var err error
	p.borrowErrors, err = metrics.AddCounterVec(metricsPrefix, "borrow errors total",
		"How many borrows failed.", labels, []string{"reason"})
	if err != nil {
		return errors.Wrap(err, "add counter metric")
	}

	p.dials, err = metrics.AddIncCounter(metricsPrefix, "dials total", "How many connections were dialed.", labels)
	if err != nil {
		return errors.Wrap(err, "add counter metric")
	}

	p.dialErrors, err = metrics.AddIncCounter(metricsPrefix, "dial errors total", "How many dials failed.", labels)
	if err != nil {
		return errors.Wrap(err, "add counter metric")
	}

	return nil
}

func (p *Pool) buildChecks() error {
	if err := p.checks.GetReadyHandlers().Add(&base.CheckOptions{
		Name: "pool " + p.address,
		CheckFunc: func(context.Context) error {
			if phase := p.Phase(); phase != PhaseReady {
				return &UnavailableError{Address: p.address, Phase: phase}
			}
			return nil
		},
	}); err != nil {
		return errors.Wrap(err, "add ready check")
	}

	if err := p.checks.GetAliveHandlers().Add(&base.CheckOptions{
		Name: "pool " + p.address,
		CheckFunc: func(context.Context) error {
			switch phase := p.Phase(); phase {
			case PhaseInitFailed, PhaseClosing:
				return &UnavailableError{Address: p.address, Phase: phase}
			}
			return nil
		},
	}); err != nil {
		return errors.Wrap(err, "add alive check")
	}

	return nil
}

// GetMetrics returns the pool metrics. Gauges are refreshed by
// MetricsStorage.Collect, call Registrate to expose them.
func (p *Pool) GetMetrics() *base.MetricsStorage {
	return p.metrics
}

// GetChecks returns the readiness and liveness checks of the pool.
func (p *Pool) GetChecks() *base.CheckStorage {
	return p.checks
}
