package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Hook names used as label values.
const (
	HookPostConstruct = "post_construct"
	HookPreDestroy    = "pre_destroy"
)

// Recorder receives container events worth counting.
type Recorder interface {
	BeanConstructed(bean, scope string, elapsed time.Duration)
	HookRun(bean, hook string)
	Failure(code string)
}

// Config contains metrics configuration.
type Config struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// PrometheusRecorder records container events as Prometheus collectors.
type PrometheusRecorder struct {
	constructed *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	hooks       *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewPrometheus creates the collectors under namespace and registers them
// with reg. A nil reg means prometheus.DefaultRegisterer. Collectors that
// are already registered, e.g. by a second container, are reused.
func NewPrometheus(namespace string, reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "beans"
	}

	r := &PrometheusRecorder{
		constructed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constructed_total",
			Help:      "Number of bean instances constructed.",
		}, []string{"bean", "scope"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "construction_seconds",
			Help:      "Time spent constructing a bean, dependencies included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"bean"}),
		hooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hooks_total",
			Help:      "Number of lifecycle hooks run.",
		}, []string{"bean", "hook"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of container errors by code.",
		}, []string{"code"}),
	}

	var err error
	if r.constructed, err = register(reg, r.constructed); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.hooks, err = register(reg, r.hooks); err != nil {
		return nil, err
	}
	if r.failures, err = register(reg, r.failures); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PrometheusRecorder) BeanConstructed(bean, scope string, elapsed time.Duration) {
	r.constructed.WithLabelValues(bean, scope).Inc()
	r.duration.WithLabelValues(bean).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) HookRun(bean, hook string) {
	r.hooks.WithLabelValues(bean, hook).Inc()
}

func (r *PrometheusRecorder) Failure(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	r.failures.WithLabelValues(code).Inc()
}

// NewNoOpRecorder creates a recorder that drops every event.
// Useful for testing, benchmarking, or when metrics are disabled.
func NewNoOpRecorder() Recorder {
	return noOpRecorder{}
}

type noOpRecorder struct{}

func (noOpRecorder) BeanConstructed(string, string, time.Duration) {}
func (noOpRecorder) HookRun(string, string)                         {}
func (noOpRecorder) Failure(string)                                 {}
