package di

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/beans/internal/config"
	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

func mustStore(t *testing.T, ds ...*descriptor.Descriptor) *descriptor.Store {
	t.Helper()
	store, err := descriptor.NewStore(ds...)
	require.NoError(t, err)
	return store
}

func newValue(_ context.Context, args descriptor.Args) (any, error) {
	return &value{args: args}, nil
}

func newFactory(context.Context) (any, error) {
	return &value{}, nil
}

func anyField(name string, dep descriptor.Dependency) descriptor.FieldInjection {
	return descriptor.FieldInjection{
		Name:       name,
		Dependency: dep,
		Assign: func(instance, v any) error {
			instance.(*value).fields = append(instance.(*value).fields, v)
			return nil
		},
	}
}

func beanName(i int) string {
	return fmt.Sprintf("bean-%02d", i)
}

// value is a bean that keeps whatever it was given.
type value struct {
	args   descriptor.Args
	fields []any
}

// events records lifecycle callbacks across goroutines.
type events struct {
	mu   sync.Mutex
	list []string
}

func (e *events) add(event string) {
	e.mu.Lock()
	e.list = append(e.list, event)
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.list))
	copy(out, e.list)
	return out
}

func (e *events) count(event string) int {
	n := 0
	for _, ev := range e.all() {
		if ev == event {
			n++
		}
	}
	return n
}

// hooks returns post-construct and pre-destroy hooks that record
// "construct:<name>" and "destroy:<name>".
func (e *events) hooks(name string) (descriptor.Hook, descriptor.Hook) {
	return func(context.Context, any) error {
			e.add("construct:" + name)
			return nil
		}, func(context.Context, any) error {
			e.add("destroy:" + name)
			return nil
		}
}

// tracked builds a bean with recording hooks and the given dependencies as
// constructor parameters.
func (e *events) tracked(name string, scope descriptor.Scope, deps ...descriptor.Dependency) *descriptor.Descriptor {
	post, pre := e.hooks(name)
	d := &descriptor.Descriptor{
		Name:          name,
		Scope:         scope,
		PostConstruct: post,
		PreDestroy:    pre,
	}
	if len(deps) > 0 {
		d.Constructor = descriptor.NewConstructor(newValue, deps...)
	} else {
		d.Factory = newFactory
	}
	return d
}

type repository struct {
	dataSource string
	poolSize   int
}

type service struct {
	repo *repository
}

func repositoryDescriptor(ev *events) *descriptor.Descriptor {
	post, pre := ev.hooks("repository")
	return &descriptor.Descriptor{
		Name:     "repository",
		TypeName: "app.Repository",
		Factory:  descriptor.FactoryFor(func() *repository { return &repository{} }),
		InitParams: map[string]any{
			"dataSource": "jdbc:test",
		},
		Setters: []descriptor.Setter{
			descriptor.SetterFor("dataSource", func(r *repository, ds string) { r.dataSource = ds }),
			descriptor.SetterFor("poolSize", func(r *repository, n int) { r.poolSize = n }),
		},
		PostConstruct: post,
		PreDestroy:    pre,
	}
}

func serviceDescriptor(ev *events) *descriptor.Descriptor {
	post, pre := ev.hooks("service")
	return &descriptor.Descriptor{
		Name:     "service",
		TypeName: "app.Service",
		Constructor: descriptor.NewConstructor(func(_ context.Context, args descriptor.Args) (any, error) {
			repo, err := descriptor.ArgAs[*repository](args, 0)
			if err != nil {
				return nil, err
			}
			return &service{repo: repo}, nil
		}, descriptor.RefType("app.Repository")),
		PostConstruct: post,
		PreDestroy:    pre,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Env = config.EnvTest
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	return cfg
}

func newTestContainer(t *testing.T, ds []*descriptor.Descriptor, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{
		WithConfig(testConfig()),
		WithLogger(logger.NewNoopLogger()),
		WithMetrics(metrics.NewNoOpRecorder()),
	}, opts...)
	c, err := New(mustStore(t, ds...), opts...)
	require.NoError(t, err)
	return c
}
