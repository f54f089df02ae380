package di

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

// Lifecycle runs pre-destroy hooks, dependents before their dependencies.
type Lifecycle struct {
	engine *Engine
}

// NewLifecycle creates the lifecycle coordinator of engine.
func NewLifecycle(engine *Engine) *Lifecycle {
	return &Lifecycle{engine: engine}
}

// Shutdown tears down every registry-owned instance in reverse construction
// order. It waits for in-flight lookups, runs once, and leaves the container
// closed: later lookups fail and a second Shutdown is a lifecycle error.
//
// For each instance the prototypes it holds are destroyed first, then the
// instance itself. The first failing hook aborts the sweep.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	e := l.engine
	ctx, release, err := e.barrier.close(ctx)
	defer release()
	if err != nil {
		return err
	}

	ctx, span := e.obs.Tracer.Start(ctx, SpanShutdown)
	defer span.End()

	start := time.Now()
	destroyed, err := l.sweep(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "shutdown failed")
		e.obs.Recorder.Failure(errors.CodeOf(err))
		e.obs.Logger.Error("container shutdown failed", logger.Error(err))
		return err
	}

	span.SetAttributes(attribute.Int("beans.destroyed", destroyed))
	e.obs.Logger.Info("container shut down", logger.Int("destroyed", destroyed), logger.Elapsed(start))
	return nil
}

func (l *Lifecycle) sweep(ctx context.Context) (int, error) {
	e := l.engine
	order, err := e.Order()
	if err != nil {
		return 0, err
	}

	destroyed := 0
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		d, err := e.registry.LookupDescriptor(name)
		if err != nil {
			return destroyed, errors.ErrShutdown(name, errors.StageShutdown, "descriptor disappeared", err)
		}

		var live []Live
		switch d.Scope {
		case descriptor.Prototype:
			continue
		case descriptor.Singleton:
			instance, ok := e.registry.LiveSingleton(name)
			if ok {
				live = append(live, instance)
			} else if e.Bootstrapped() {
				return destroyed, errors.ErrShutdown(name, errors.StageShutdown, "expected live instance is missing", nil)
			}
		case descriptor.ThreadScoped:
			if e.Bootstrapped() && !e.registry.HasThreadFactory(name) {
				return destroyed, errors.ErrShutdown(name, errors.StageShutdown, "expected thread-scoped factory is missing", nil)
			}
			live = e.registry.LiveThreadScoped(name)
		}

		for _, instance := range live {
			n, err := l.destroy(ctx, d, instance)
			destroyed += n
			if err != nil {
				return destroyed, err
			}
		}
	}
	return destroyed, nil
}

// ReleaseContext tears down the thread-scoped instances of the execution
// context of ctx, dependents first, and forgets them. The rest of the
// container stays live.
func (l *Lifecycle) ReleaseContext(ctx context.Context) error {
	e := l.engine
	ctx, release, err := e.barrier.enter(ctx, "")
	defer release()
	if err != nil {
		return err
	}

	id := ExecutionContextID(ctx)
	order, err := e.Order()
	if err != nil {
		return err
	}

	for i := len(order) - 1; i >= 0; i-- {
		d, err := e.registry.LookupDescriptor(order[i])
		if err != nil || d.Scope != descriptor.ThreadScoped {
			continue
		}
		live, ok := e.registry.TakeThreadScoped(id, order[i])
		if !ok {
			continue
		}
		if _, err := l.destroy(ctx, d, live); err != nil {
			return err
		}
	}

	e.registry.DropContext(id)
	e.obs.Logger.Debug("execution context released", logger.ContextID(id))
	return nil
}

// destroy runs the pre-destroy hooks of the prototypes held by an instance,
// then its own, and returns how many hooks ran.
func (l *Lifecycle) destroy(ctx context.Context, d *descriptor.Descriptor, live Live) (int, error) {
	n, err := l.destroyHeld(ctx, live.Holder)
	if err != nil {
		return n, err
	}
	ran, err := l.preDestroy(ctx, d, live.Name, live.Instance)
	if ran {
		n++
	}
	return n, err
}

func (l *Lifecycle) destroyHeld(ctx context.Context, holder *Holder) (int, error) {
	n := 0
	for _, held := range holder.Held() {
		d, err := l.engine.registry.LookupDescriptor(held.Name)
		if err != nil {
			return n, errors.ErrShutdown(held.Name, errors.StagePreDestroy, "held instance has no descriptor", err)
		}
		m, err := l.destroy(ctx, d, Live{Name: held.Name, Instance: held.Instance, Holder: held.Holder})
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (l *Lifecycle) preDestroy(ctx context.Context, d *descriptor.Descriptor, name string, instance any) (bool, error) {
	if d.PreDestroy == nil {
		return false, nil
	}
	e := l.engine

	ctx, span := e.obs.Tracer.Start(ctx, SpanShutdown+".bean", trace.WithAttributes(
		attribute.String("bean.name", name),
		attribute.String("bean.scope", d.Scope.String()),
	))
	defer span.End()

	if err := d.PreDestroy(ctx, instance); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-destroy failed")
		return true, errors.ErrShutdown(name, errors.StagePreDestroy, "pre-destroy hook failed", err)
	}

	e.obs.Recorder.HookRun(name, metrics.HookPreDestroy)
	e.obs.Logger.Debug("bean destroyed", logger.Bean(name), logger.Scope(d.Scope.String()))
	return true, nil
}
