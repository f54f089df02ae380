package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/beans/internal/config"
	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

// TracerName is the instrumentation name of the container's spans.
const TracerName = "github.com/xraph/beans"

// Container wires the registry, the instantiation engine and the lifecycle
// coordinator around one descriptor store. Independent containers share no
// state.
type Container struct {
	cfg       config.Config
	registry  *Registry
	engine    *Engine
	lifecycle *Lifecycle
	log       logger.Logger
}

// BeanInfo describes a bean for diagnostics.
type BeanInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	Scope        string   `json:"scope"`
	Dependencies []string `json:"dependencies,omitempty"`
	Deferred     []string `json:"deferred,omitempty"`
	Instantiated bool     `json:"instantiated"`
	Contexts     []string `json:"contexts,omitempty"`
	External     bool     `json:"external,omitempty"`
}

// Option configures a Container.
type Option func(*options)

type options struct {
	cfg            *config.Config
	log            logger.Logger
	recorder       metrics.Recorder
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	externals      []external
}

type external struct {
	name  string
	value any
}

// WithConfig sets the container configuration. Without it config.Default
// is used.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithLogger sets the logger. Without it one is built from the logging
// configuration.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the metrics recorder, overriding the metrics
// configuration.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithRegisterer sets where Prometheus collectors are registered when
// metrics are enabled by configuration.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracerProvider sets the tracer provider used when tracing is enabled.
// Without it the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithInstance registers a pre-built value under name. It can be referenced
// like any bean but is not part of the dependency graph and is never
// destroyed.
func WithInstance(name string, value any) Option {
	return func(o *options) { o.externals = append(o.externals, external{name: name, value: value}) }
}

// New creates a container over store. The construction order is resolved
// immediately, so a cyclic store fails here.
func New(store *descriptor.Store, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := config.Default()
	if o.cfg != nil {
		cfg = *o.cfg
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := o.log
	if log == nil {
		lc := cfg.Logging
		lc.Environment = cfg.Env
		log = logger.NewLogger(lc)
	}
	log = log.Named("beans")

	recorder := o.recorder
	if recorder == nil && cfg.Metrics.Enabled {
		r, err := metrics.NewPrometheus(cfg.Metrics.Namespace, o.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		recorder = r
	}

	var tracer trace.Tracer
	switch {
	case !cfg.Tracing.Enabled:
		tracer = noop.NewTracerProvider().Tracer(TracerName)
	case o.tracerProvider != nil:
		tracer = o.tracerProvider.Tracer(TracerName)
	default:
		tracer = otel.GetTracerProvider().Tracer(TracerName)
	}

	registry := NewRegistry(store)
	for _, ext := range o.externals {
		if err := registry.RegisterExternal(ext.name, ext.value); err != nil {
			return nil, err
		}
	}

	engine := NewEngine(registry, Observers{Logger: log, Recorder: recorder, Tracer: tracer})
	if _, err := engine.Order(); err != nil {
		return nil, err
	}

	return &Container{
		cfg:       cfg,
		registry:  registry,
		engine:    engine,
		lifecycle: NewLifecycle(engine),
		log:       log,
	}, nil
}

// Config returns the container configuration.
func (c *Container) Config() config.Config { return c.cfg }

// GetBean returns the bean registered under name.
func (c *Container) GetBean(ctx context.Context, name string) (any, error) {
	return c.engine.GetBean(ctx, name)
}

// InstantiateAndRegisterAll eagerly builds every singleton and
// thread-scoped bean in construction order.
func (c *Container) InstantiateAndRegisterAll(ctx context.Context) error {
	return c.engine.InstantiateAndRegisterAll(ctx)
}

// Shutdown runs every pre-destroy hook, dependents first, and closes the
// container.
func (c *Container) Shutdown(ctx context.Context) error {
	return c.lifecycle.Shutdown(ctx)
}

// TestCleanup is Shutdown restricted to the test environment.
func (c *Container) TestCleanup(ctx context.Context) error {
	if !c.cfg.IsTest() {
		return errors.ErrConfiguration("", errors.StageShutdown,
			fmt.Sprintf("test cleanup requires env %q, container runs in %q", config.EnvTest, c.cfg.Env))
	}
	return c.lifecycle.Shutdown(ctx)
}

// ReleaseContext destroys the thread-scoped beans of ctx's execution context.
func (c *Container) ReleaseContext(ctx context.Context) error {
	return c.lifecycle.ReleaseContext(ctx)
}

// Register adds a descriptor before the container is instantiated. A
// dependency cycle it closes is reported by the next eager sweep.
func (c *Container) Register(d *descriptor.Descriptor) error {
	return c.engine.Register(d)
}

// Has reports whether name denotes a descriptor or an external instance.
func (c *Container) Has(name string) bool {
	if _, ok := c.registry.External(name); ok {
		return true
	}
	_, err := c.registry.LookupDescriptor(name)
	return err == nil
}

// Closed reports whether the container has been shut down.
func (c *Container) Closed() bool {
	return c.engine.barrier.isClosed()
}

// Order returns the construction order.
func (c *Container) Order() []string {
	order, _ := c.engine.Order()
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Beans describes every bean in construction order.
func (c *Container) Beans() []BeanInfo {
	order := c.Order()
	out := make([]BeanInfo, 0, len(order))
	for _, name := range order {
		if info, err := c.Inspect(name); err == nil {
			out = append(out, info)
		}
	}
	return out
}

// Inspect returns diagnostic information about a bean.
func (c *Container) Inspect(name string) (BeanInfo, error) {
	if v, ok := c.registry.External(name); ok {
		return BeanInfo{
			Name:         name,
			Type:         fmt.Sprintf("%T", v),
			Scope:        descriptor.Singleton.String(),
			Instantiated: true,
			External:     true,
		}, nil
	}

	d, err := c.registry.LookupDescriptor(name)
	if err != nil {
		return BeanInfo{}, err
	}
	name = d.PreferredName()

	info := BeanInfo{
		Name:  name,
		Type:  d.TypeName,
		Scope: d.Scope.String(),
	}
	for _, dep := range d.Dependencies() {
		target := dep.Target
		if resolved, ok := c.registry.Target(dep); ok {
			target = resolved
		}
		if dep.Deferred {
			info.Deferred = append(info.Deferred, target)
		} else {
			info.Dependencies = append(info.Dependencies, target)
		}
	}

	switch d.Scope {
	case descriptor.Singleton:
		if v, ok := c.registry.Singleton(name); ok {
			info.Instantiated = true
			if info.Type == "" {
				info.Type = fmt.Sprintf("%T", v)
			}
		}
	case descriptor.ThreadScoped:
		info.Contexts = c.registry.ContextsOf(name)
		info.Instantiated = len(info.Contexts) > 0
	}
	return info, nil
}
