package base

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// UpdateFunc refreshes a metric from the state it reports, for example a
// gauge mirroring a counter kept elsewhere.
type UpdateFunc func(ctx context.Context) error

// GaugeFunc returns the current value of a gauge.
type GaugeFunc func(ctx context.Context) (float64, error)

// MetricOptions is a named prometheus collector with an optional update
// function, nil for metrics changed in place.
type MetricOptions struct {
	Name      string
	Collector prometheus.Collector
	Update    UpdateFunc
}

// MetricName joins a namespace and a space separated postfix into a
// prometheus metric name: ("cqlpool", "open connections") gives
// "cqlpool_open_connections".
func MetricName(namespace, postfix string) string {
	return namespace + "_" + strings.ReplaceAll(postfix, " ", "_")
}

func NewMetricOptionsGauge(namespace, postfix, help string, labels prometheus.Labels, f GaugeFunc) *MetricOptions {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        MetricName(namespace, postfix),
		Help:        help,
		ConstLabels: labels,
	})

	return &MetricOptions{
		Name:      MetricName(namespace, postfix),
		Collector: gauge,
		Update: func(ctx context.Context) error {
			v, err := f(ctx)
			if err != nil {
				return errors.Wrap(err, "gauge value")
			}
			gauge.Set(v)
			return nil
		},
	}
}

func NewIncCounter(namespace, postfix, help string, labels prometheus.Labels) *MetricOptions {
	return &MetricOptions{
		Name: MetricName(namespace, postfix),
		Collector: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        MetricName(namespace, postfix),
			Help:        help,
			ConstLabels: labels,
		}),
	}
}

func NewCounterVec(namespace, postfix, help string, labels prometheus.Labels, variableLabels []string) *MetricOptions {
	return &MetricOptions{
		Name: MetricName(namespace, postfix),
		Collector: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        MetricName(namespace, postfix),
			Help:        help,
			ConstLabels: labels,
		}, variableLabels),
	}
}

// MapMetricsOptions is a set of metrics keyed by name.
type MapMetricsOptions struct {
	mu      sync.Mutex
	options map[string]*MetricOptions
}

func NewMapMetricsOptions() *MapMetricsOptions {
	return &MapMetricsOptions{options: make(map[string]*MetricOptions)}
}

// Append moves every metric of src into mmo. Nothing is moved when a name
// is taken.
func (mmo *MapMetricsOptions) Append(src *MapMetricsOptions) error {
	src.mu.Lock()
	defer src.mu.Unlock()
	mmo.mu.Lock()
	defer mmo.mu.Unlock()

	for name := range src.options {
		if _, ok := mmo.options[name]; ok {
			return errors.Wrapf(ErrConflictName, "name: %s", name)
		}
	}

	for name, opts := range src.options {
		mmo.options[name] = opts
	}

	return nil
}

func (mmo *MapMetricsOptions) Add(options *MetricOptions) error {
	switch {
	case options == nil:
		return ErrOptionsIsNil
	case options.Name == "":
		return ErrEmptyOptionsName
	case options.Collector == nil:
		return ErrInvalidCollector
	}

	mmo.mu.Lock()
	defer mmo.mu.Unlock()

	if _, ok := mmo.options[options.Name]; ok {
		return errors.Wrapf(ErrConflictName, "name: %s", options.Name)
	}
	mmo.options[options.Name] = options

	return nil
}

func (mmo *MapMetricsOptions) Len() int {
	mmo.mu.Lock()
	defer mmo.mu.Unlock()

	return len(mmo.options)
}

func addCollector[T prometheus.Collector](mmo *MapMetricsOptions, options *MetricOptions) (T, error) {
	var zero T

	collector, ok := options.Collector.(T)
	if !ok {
		return zero, ErrFailedTypecastMetric
	}

	if err := mmo.Add(options); err != nil {
		return zero, errors.Wrap(err, "add to metrics map")
	}

	return collector, nil
}

// AddMetricGauge adds a gauge refreshed by f on every Update.
func (mmo *MapMetricsOptions) AddMetricGauge(namespace, postfix, help string, labels prometheus.Labels, f GaugeFunc) (prometheus.Gauge, error) {
	if f == nil {
		return nil, ErrFuncIsNil
	}

	return addCollector[prometheus.Gauge](mmo, NewMetricOptionsGauge(namespace, postfix, help, labels, f))
}

func (mmo *MapMetricsOptions) AddIncCounter(namespace, postfix, help string, labels prometheus.Labels) (prometheus.Counter, error) {
	return addCollector[prometheus.Counter](mmo, NewIncCounter(namespace, postfix, help, labels))
}

func (mmo *MapMetricsOptions) AddCounterVec(namespace, postfix, help string, labels prometheus.Labels, variableLabels []string) (*prometheus.CounterVec, error) {
	return addCollector[*prometheus.CounterVec](mmo, NewCounterVec(namespace, postfix, help, labels, variableLabels))
}

// Update runs the update function of every metric that has one and stops
// at the first failure.
func (mmo *MapMetricsOptions) Update(ctx context.Context) error {
	mmo.mu.Lock()
	defer mmo.mu.Unlock()

	for name, opts := range mmo.options {
		if opts.Update == nil {
			continue
		}
		if err := opts.Update(ctx); err != nil {
			return errors.Wrapf(err, "update metric %s", name)
		}
	}

	return nil
}

// Registrate registers every metric in register.
func (mmo *MapMetricsOptions) Registrate(register prometheus.Registerer) error {
	mmo.mu.Lock()
	defer mmo.mu.Unlock()

	for name, opts := range mmo.options {
		if err := register.Register(opts.Collector); err != nil {
			return errors.Wrapf(err, "registrate metric %s", name)
		}
	}

	return nil
}
