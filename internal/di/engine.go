package di

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

// Span names.
const (
	SpanConstruct = "beans.construct"
	SpanShutdown  = "beans.shutdown"
)

// Observers are the logging, metrics and tracing sinks of the engine and
// the lifecycle coordinator. Nil members are replaced by no-op sinks.
type Observers struct {
	Logger   logger.Logger
	Recorder metrics.Recorder
	Tracer   trace.Tracer
}

func (o Observers) withDefaults() Observers {
	if o.Logger == nil {
		o.Logger = logger.NewNoopLogger()
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NewNoOpRecorder()
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return o
}

// Engine resolves and builds beans.
type Engine struct {
	registry *Registry
	barrier  *barrier
	obs      Observers

	orderMu sync.Mutex
	order   []string

	bootstrapped atomic.Bool
}

// NewEngine creates an engine over registry.
func NewEngine(registry *Registry, obs Observers) *Engine {
	return &Engine{
		registry: registry,
		barrier:  &barrier{},
		obs:      obs.withDefaults(),
	}
}

// Registry returns the registry the engine builds into.
func (e *Engine) Registry() *Registry { return e.registry }

// Order returns the construction order, computing it on first use.
func (e *Engine) Order() ([]string, error) {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	if e.order != nil {
		return e.order, nil
	}
	order, err := ResolveOrder(e.registry.Store())
	if err != nil {
		return nil, err
	}
	e.order = order
	return order, nil
}

// Register adds a descriptor and drops the cached construction order. It is
// rejected once the eager sweep has run or the container is closed.
func (e *Engine) Register(d *descriptor.Descriptor) error {
	name := ""
	if d != nil {
		name = d.PreferredName()
	}
	if e.barrier.isClosed() {
		return errors.ErrClosed(name, errors.StageRegister)
	}
	if e.Bootstrapped() {
		return errors.ErrLifecycle(name, errors.StageRegister, "container already instantiated")
	}
	if err := e.registry.RegisterDescriptor(d); err != nil {
		return err
	}
	e.orderMu.Lock()
	e.order = nil
	e.orderMu.Unlock()
	return nil
}

// Bootstrapped reports whether InstantiateAndRegisterAll completed.
func (e *Engine) Bootstrapped() bool { return e.bootstrapped.Load() }

// GetBean returns the bean registered under name, building it if its scope
// requires. Singletons are built once, thread-scoped beans once per
// execution context, prototypes on every call.
func (e *Engine) GetBean(ctx context.Context, name string) (any, error) {
	return e.lookup(ctx, name, nil)
}

// lookup is GetBean for a caller that may own the returned prototype.
func (e *Engine) lookup(ctx context.Context, name string, owner *Holder) (any, error) {
	top := !holdsBarrier(ctx)
	ctx, release, err := e.barrier.enter(ctx, name)
	defer release()
	if err != nil {
		return nil, e.fail(ctx, top, err)
	}

	instance, held, err := e.resolve(ctx, name)
	if err != nil {
		return nil, e.fail(ctx, top, err)
	}
	if owner != nil && held != nil {
		owner.Add(held.Name, held.Instance, held.Holder)
	}
	return instance, nil
}

// InstantiateAndRegisterAll builds every singleton and thread-scoped bean in
// construction order and registers it. Thread-scoped beans are built for the
// execution context of ctx. Prototypes are skipped; they are only built on
// demand. A failure leaves the container partially populated.
func (e *Engine) InstantiateAndRegisterAll(ctx context.Context) error {
	ctx, release, err := e.barrier.enter(ctx, "")
	defer release()
	if err != nil {
		return e.fail(ctx, true, err)
	}

	order, err := e.Order()
	if err != nil {
		return e.fail(ctx, true, err)
	}

	start := time.Now()
	e.obs.Logger.Info("instantiating beans", logger.Int("count", len(order)))

	for _, name := range order {
		d, err := e.registry.LookupDescriptor(name)
		if err != nil {
			return e.fail(ctx, true, err)
		}
		if d.Scope == descriptor.Prototype || e.registry.HasInstance(name) {
			continue
		}

		switch d.Scope {
		case descriptor.Singleton:
			instance, holder, err := e.build(ctx, d)
			if err != nil {
				return e.fail(ctx, true, err)
			}
			if err := e.registry.RegisterSingleton(d, instance, holder); err != nil {
				return e.fail(ctx, true, err)
			}
		case descriptor.ThreadScoped:
			if err := e.registry.RegisterThreadScoped(d, e.threadFactory(d)); err != nil {
				return e.fail(ctx, true, err)
			}
			if _, err := e.registry.ThreadScopedOrCreate(ctx, name); err != nil {
				return e.fail(ctx, true, err)
			}
		}

		e.obs.Logger.Info("bean registered", logger.Bean(name), logger.Scope(d.Scope.String()))
	}

	e.bootstrapped.Store(true)
	e.obs.Logger.Info("beans instantiated", logger.Int("count", len(order)), logger.Elapsed(start))
	return nil
}

// resolve returns the bean registered under name. For a freshly built
// prototype that needs teardown it also returns the record its owner should
// keep.
func (e *Engine) resolve(ctx context.Context, name string) (any, *Held, error) {
	if v, ok := e.registry.External(name); ok {
		return v, nil, nil
	}

	d, err := e.registry.LookupDescriptor(name)
	if err != nil {
		return nil, nil, err
	}
	name = d.PreferredName()

	if cycle := cycleThrough(ctx, name); cycle != nil {
		return nil, nil, errors.ErrConstruction(name, errors.StageResolve, errors.ErrCyclicDependency(cycle))
	}

	switch d.Scope {
	case descriptor.Singleton:
		instance, err := e.registry.SingletonOrCreate(name, func() (any, *Holder, error) {
			return e.build(ctx, d)
		})
		return instance, nil, err

	case descriptor.ThreadScoped:
		if !e.registry.HasThreadFactory(name) {
			// Installed lazily when the eager sweep has not run; losing a
			// race to another installer is fine.
			_ = e.registry.RegisterThreadScoped(d, e.threadFactory(d))
		}
		instance, err := e.registry.ThreadScopedOrCreate(ctx, name)
		return instance, nil, err

	default:
		instance, holder, err := e.build(ctx, d)
		if err != nil {
			return nil, nil, err
		}
		if d.PreDestroy == nil && holder.Len() == 0 {
			return instance, nil, nil
		}
		return instance, &Held{Name: name, Instance: instance, Holder: holder}, nil
	}
}

func (e *Engine) threadFactory(d *descriptor.Descriptor) ThreadFactory {
	return func(ctx context.Context) (any, *Holder, error) {
		return e.build(ctx, d)
	}
}

// build creates an instance and runs its post-construct hook.
func (e *Engine) build(ctx context.Context, d *descriptor.Descriptor) (any, *Holder, error) {
	name := d.PreferredName()
	scope := d.Scope.String()
	start := time.Now()

	// The post-construct hook runs inside the construction too.
	ctx = withConstruction(ctx, name)
	ctx, span := e.obs.Tracer.Start(ctx, SpanConstruct, trace.WithAttributes(
		attribute.String("bean.name", name),
		attribute.String("bean.scope", scope),
		attribute.String("bean.context", ExecutionContextID(ctx)),
	))
	defer span.End()

	instance, holder, err := e.createInstance(ctx, d)
	if err == nil && d.PostConstruct != nil {
		if hookErr := d.PostConstruct(ctx, instance); hookErr != nil {
			err = errors.ErrConstruction(name, errors.StagePostConstruct, hookErr)
		} else {
			e.obs.Recorder.HookRun(name, metrics.HookPostConstruct)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "construction failed")
		return nil, nil, err
	}

	e.obs.Recorder.BeanConstructed(name, scope, time.Since(start))
	e.obs.Logger.Debug("bean constructed",
		logger.Bean(name),
		logger.Scope(scope),
		logger.ContextID(ExecutionContextID(ctx)),
		logger.Elapsed(start),
	)
	return instance, holder, nil
}

// createInstance allocates an instance of d and injects it: constructor
// arguments, then fields, then initialization values. ctx already names d
// as under construction.
func (e *Engine) createInstance(ctx context.Context, d *descriptor.Descriptor) (any, *Holder, error) {
	name := d.PreferredName()
	if d.MixesInjectionStyles() {
		return nil, nil, errors.ErrConfiguration(name, errors.StageValidate,
			"only one injection style is allowed: fields or constructor")
	}

	holder := NewHolder()

	var instance any
	var err error
	if d.Constructor != nil {
		args := make(descriptor.Args, len(d.Constructor.Params))
		for i, p := range d.Constructor.Params {
			if args[i], err = e.dependency(ctx, holder, p); err != nil {
				return nil, nil, errors.ErrConstruction(name, errors.StageResolveConstructor,
					fmt.Errorf("parameter %d (%s): %w", i, p, err))
			}
		}
		instance, err = d.Constructor.New(ctx, args)
	} else {
		instance, err = d.Factory(ctx)
	}
	if err != nil {
		return nil, nil, errors.ErrConstruction(name, errors.StageInstantiate, err)
	}
	if instance == nil {
		return nil, nil, errors.ErrConstruction(name, errors.StageInstantiate, errors.New("constructor returned nil"))
	}

	for _, f := range d.Fields {
		v, err := e.dependency(ctx, holder, f.Dependency)
		if err == nil {
			err = f.Assign(instance, v)
		}
		if err != nil {
			return nil, nil, errors.ErrConstruction(name, errors.StageInjectField,
				fmt.Errorf("field %s (%s): %w", f.Name, f.Dependency, err))
		}
	}

	if err := applyInitParams(d, instance); err != nil {
		return nil, nil, err
	}
	return instance, holder, nil
}

// dependency resolves one constructor parameter or field. Deferred
// references become providers owned by holder.
func (e *Engine) dependency(ctx context.Context, holder *Holder, dep descriptor.Dependency) (any, error) {
	target := dep.Target
	if name, ok := e.registry.Target(dep); ok {
		target = name
	}
	if dep.Deferred {
		return newProvider(e, target, holder), nil
	}

	instance, held, err := e.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if held != nil {
		holder.Add(held.Name, held.Instance, held.Holder)
	}
	return instance, nil
}

// applyInitParams calls, for each initialization value in key order, the
// setter of that name that accepts the value.
func applyInitParams(d *descriptor.Descriptor, instance any) error {
	name := d.PreferredName()
	for _, key := range d.InitParamKeys() {
		value := d.InitParams[key]

		var setter *descriptor.Setter
		for _, s := range d.SettersNamed(key) {
			if s.Accepts(value) {
				setter = &s
				break
			}
		}
		if setter == nil {
			return errors.ErrConstruction(name, errors.StageInitParams, errors.ErrSetterResolution(name, key, value))
		}
		if err := setter.Apply(instance, value); err != nil {
			return errors.ErrConstruction(name, errors.StageInitParams, fmt.Errorf("%s: %w", key, err))
		}
	}
	return nil
}

// fail records an error that is about to leave the container. Nested
// lookups only pass errors up, so each failure is counted once.
func (e *Engine) fail(ctx context.Context, top bool, err error) error {
	if top {
		e.obs.Recorder.Failure(errors.CodeOf(err))
		e.obs.Logger.WithContext(ctx).Error("bean lookup failed", logger.Error(err))
	}
	return err
}
