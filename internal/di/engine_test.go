package di

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/beans/internal/descriptor"
	beanerrors "github.com/xraph/beans/internal/errors"
)

func TestEngine_RepositoryServiceScenario(t *testing.T) {
	ev := &events{}
	c := newTestContainer(t, []*descriptor.Descriptor{serviceDescriptor(ev), repositoryDescriptor(ev)})
	ctx := context.Background()

	assert.Equal(t, []string{"repository", "service"}, c.Order())
	require.NoError(t, c.InstantiateAndRegisterAll(ctx))

	svc, err := Resolve[*service](ctx, c, "service")
	require.NoError(t, err)
	repo, err := Resolve[*repository](ctx, c, "repository")
	require.NoError(t, err)

	assert.Same(t, repo, svc.repo)
	assert.Equal(t, "jdbc:test", repo.dataSource)
	assert.Equal(t, []string{"construct:repository", "construct:service"}, ev.all())

	byType, err := c.GetBean(ctx, "app.Repository")
	require.NoError(t, err)
	assert.Same(t, repo, byType)

	require.NoError(t, c.Shutdown(ctx))
	assert.Equal(t, []string{
		"construct:repository", "construct:service",
		"destroy:service", "destroy:repository",
	}, ev.all())
}

func TestEngine_SingletonBuiltOnce(t *testing.T) {
	ev := &events{}
	c := newTestContainer(t, []*descriptor.Descriptor{ev.tracked("a", descriptor.Singleton)})
	ctx := context.Background()

	first, err := c.GetBean(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.InstantiateAndRegisterAll(ctx))
	second, err := c.GetBean(ctx, "a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, ev.count("construct:a"))
}

func TestEngine_ConcurrentSingletonLookup(t *testing.T) {
	var calls atomic.Int32
	c := newTestContainer(t, []*descriptor.Descriptor{{
		Name: "slow",
		Factory: func(context.Context) (any, error) {
			calls.Add(1)
			return &value{}, nil
		},
	}})

	const goroutines = 50
	start := make(chan struct{})
	results := make([]any, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := c.GetBean(context.Background(), "slow")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestEngine_PrototypeIsFreshEveryTime(t *testing.T) {
	ev := &events{}
	c := newTestContainer(t, []*descriptor.Descriptor{ev.tracked("proto", descriptor.Prototype)})
	ctx := context.Background()

	require.NoError(t, c.InstantiateAndRegisterAll(ctx))
	assert.Zero(t, ev.count("construct:proto"), "prototypes are not built eagerly")

	a, err := c.GetBean(ctx, "proto")
	require.NoError(t, err)
	b, err := c.GetBean(ctx, "proto")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, ev.count("construct:proto"))

	require.NoError(t, c.Shutdown(ctx))
	assert.Zero(t, ev.count("destroy:proto"), "caller-owned prototypes are not destroyed")
}

func TestEngine_ThreadScopedPerContext(t *testing.T) {
	ev := &events{}
	c := newTestContainer(t, []*descriptor.Descriptor{ev.tracked("session", descriptor.ThreadScoped)})

	ctxA := WithExecutionContext(context.Background())
	ctxB := WithExecutionContext(context.Background())

	a1, err := c.GetBean(ctxA, "session")
	require.NoError(t, err)
	a2, err := c.GetBean(ctxA, "session")
	require.NoError(t, err)
	b1, err := c.GetBean(ctxB, "session")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b1)
	assert.Equal(t, 2, ev.count("construct:session"))
}

func TestEngine_ThreadScopedConcurrentContexts(t *testing.T) {
	var calls atomic.Int32
	c := newTestContainer(t, []*descriptor.Descriptor{{
		Name:  "session",
		Scope: descriptor.ThreadScoped,
		Factory: func(context.Context) (any, error) {
			calls.Add(1)
			return &value{}, nil
		},
	}})

	const contexts = 8
	const perContext = 10
	var wg sync.WaitGroup
	instances := make([][]any, contexts)
	for i := 0; i < contexts; i++ {
		ctx := WithExecutionContext(context.Background())
		instances[i] = make([]any, perContext)
		for j := 0; j < perContext; j++ {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				v, err := c.GetBean(ctx, "session")
				assert.NoError(t, err)
				instances[i][j] = v
			}(i, j)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(contexts), calls.Load())
	for i := range instances {
		for _, v := range instances[i] {
			assert.Same(t, instances[i][0], v)
		}
	}
}

func TestEngine_ProviderIsNotMemoized(t *testing.T) {
	ev := &events{}
	var p descriptor.Provider
	owner := &descriptor.Descriptor{
		Name:    "owner",
		Factory: newFactory,
		Fields: []descriptor.FieldInjection{
			descriptor.FieldFor("proto", descriptor.Deferred("proto"), func(_ *value, v descriptor.Provider) { p = v }),
		},
	}
	c := newTestContainer(t, []*descriptor.Descriptor{owner, ev.tracked("proto", descriptor.Prototype)})
	ctx := context.Background()

	require.NoError(t, c.InstantiateAndRegisterAll(ctx))
	require.NotNil(t, p)
	assert.Equal(t, "proto", p.Target())
	assert.Zero(t, ev.count("construct:proto"), "providers resolve lazily")

	first, err := Get[*value](ctx, p)
	require.NoError(t, err)
	second, err := Get[*value](ctx, p)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, ev.count("construct:proto"))

	_, err = Get[*repository](ctx, p)
	assert.True(t, beanerrors.IsConfiguration(err))
}

func TestEngine_ProviderFollowsExecutionContext(t *testing.T) {
	var p descriptor.Provider
	c := newTestContainer(t, []*descriptor.Descriptor{
		{
			Name:        "handler",
			Constructor: descriptor.NewConstructor(func(_ context.Context, args descriptor.Args) (any, error) {
				p = args.At(0).(descriptor.Provider)
				return &value{args: args}, nil
			}, descriptor.Deferred("session")),
		},
		{Name: "session", Scope: descriptor.ThreadScoped, Factory: newFactory},
	})
	require.NoError(t, c.InstantiateAndRegisterAll(context.Background()))

	ctxA := WithExecutionContext(context.Background())
	ctxB := WithExecutionContext(context.Background())
	a1, err := p.Get(ctxA)
	require.NoError(t, err)
	a2, err := p.Get(ctxA)
	require.NoError(t, err)
	b, err := p.Get(ctxB)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
}

func TestEngine_CycleThroughProviderIsConstructionError(t *testing.T) {
	c := newTestContainer(t, []*descriptor.Descriptor{
		{
			Name: "a",
			Constructor: descriptor.NewConstructor(func(ctx context.Context, args descriptor.Args) (any, error) {
				p := args.At(0).(descriptor.Provider)
				if _, err := p.Get(ctx); err != nil {
					return nil, err
				}
				return &value{}, nil
			}, descriptor.Deferred("b")),
		},
		{
			Name:        "b",
			Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("a")),
		},
	})

	_, err := c.GetBean(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, beanerrors.IsConstruction(err))
	assert.True(t, beanerrors.IsCyclicDependency(err))
	assert.Contains(t, err.Error(), "a -> b -> a")

	_, ok := c.registry.Singleton("a")
	assert.False(t, ok, "failed construction is not cached")
}

func TestEngine_CycleThroughProviderInPostConstruct(t *testing.T) {
	tests := []struct {
		name  string
		eager bool
	}{
		{"lazy lookup", false},
		{"eager sweep", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builds := 0
			c := newTestContainer(t, []*descriptor.Descriptor{
				{
					Name: "a",
					Constructor: descriptor.NewConstructor(func(ctx context.Context, args descriptor.Args) (any, error) {
						builds++
						return newValue(ctx, args)
					}, descriptor.Deferred("b")),
					PostConstruct: func(ctx context.Context, instance any) error {
						_, err := instance.(*value).args.At(0).(descriptor.Provider).Get(ctx)
						return err
					},
				},
				{
					Name:        "b",
					Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("a")),
				},
			})

			done := make(chan error, 1)
			go func() {
				if tt.eager {
					done <- c.InstantiateAndRegisterAll(context.Background())
					return
				}
				_, err := c.GetBean(context.Background(), "a")
				done <- err
			}()

			var err error
			select {
			case err = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("lookup did not return")
			}
			require.Error(t, err)
			assert.True(t, beanerrors.IsConstruction(err))
			assert.True(t, beanerrors.IsCyclicDependency(err))
			assert.Contains(t, err.Error(), "post-construct")
			assert.Contains(t, err.Error(), "a -> b -> a")
			assert.Equal(t, 1, builds)
		})
	}
}

func TestEngine_PrototypeRepositoryScenario(t *testing.T) {
	repo := &descriptor.Descriptor{
		Name:       "repo",
		Scope:      descriptor.Prototype,
		Factory:    descriptor.FactoryFor(func() *repository { return &repository{} }),
		InitParams: map[string]any{"setDataSource": "myDataSource"},
		Setters: []descriptor.Setter{
			descriptor.SetterFor("setDataSource", func(r *repository, ds string) { r.dataSource = ds }),
		},
	}
	svc := &descriptor.Descriptor{
		Name: "service",
		Constructor: descriptor.NewConstructor(func(_ context.Context, args descriptor.Args) (any, error) {
			r, err := descriptor.ArgAs[*repository](args, 0)
			if err != nil {
				return nil, err
			}
			return &service{repo: r}, nil
		}, descriptor.Ref("repo")),
	}

	tests := []struct {
		name  string
		eager bool
	}{
		{"lazy", false},
		{"eager", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContainer(t, []*descriptor.Descriptor{repo, svc})
			ctx := context.Background()
			if tt.eager {
				require.NoError(t, c.InstantiateAndRegisterAll(ctx))
			}

			s1, err := Resolve[*service](ctx, c, "service")
			require.NoError(t, err)
			s2, err := Resolve[*service](ctx, c, "service")
			require.NoError(t, err)
			assert.Same(t, s1, s2)

			r1, err := Resolve[*repository](ctx, c, "repo")
			require.NoError(t, err)
			r2, err := Resolve[*repository](ctx, c, "repo")
			require.NoError(t, err)

			repos := []*repository{s1.repo, r1, r2}
			for i, r := range repos {
				assert.Equal(t, "myDataSource", r.dataSource)
				for _, other := range repos[i+1:] {
					assert.NotSame(t, r, other)
				}
			}
		})
	}
}

func TestEngine_PrototypeDistinctPerOwner(t *testing.T) {
	tests := []struct {
		name        string
		left, right descriptor.Scope
	}{
		{"two singletons", descriptor.Singleton, descriptor.Singleton},
		{"two prototypes", descriptor.Prototype, descriptor.Prototype},
		{"singleton and thread-scoped", descriptor.Singleton, descriptor.ThreadScoped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &events{}
			c := newTestContainer(t, []*descriptor.Descriptor{
				ev.tracked("repo", descriptor.Prototype),
				ev.tracked("left", tt.left, descriptor.Ref("repo")),
				ev.tracked("right", tt.right, descriptor.Ref("repo")),
			})
			ctx := context.Background()

			left, err := Resolve[*value](ctx, c, "left")
			require.NoError(t, err)
			right, err := Resolve[*value](ctx, c, "right")
			require.NoError(t, err)

			assert.NotSame(t, left.args.At(0), right.args.At(0))
			assert.Equal(t, 2, ev.count("construct:repo"))
		})
	}
}

func TestEngine_InitParams(t *testing.T) {
	ev := &events{}
	repo := repositoryDescriptor(ev)
	repo.InitParams["poolSize"] = 8
	c := newTestContainer(t, []*descriptor.Descriptor{repo})

	r, err := Resolve[*repository](context.Background(), c, "repository")
	require.NoError(t, err)
	assert.Equal(t, "jdbc:test", r.dataSource)
	assert.Equal(t, 8, r.poolSize)
}

func TestEngine_SetterResolutionFailure(t *testing.T) {
	ev := &events{}
	repo := repositoryDescriptor(ev)
	repo.InitParams["poolSize"] = "eight"
	c := newTestContainer(t, []*descriptor.Descriptor{repo})

	_, err := c.GetBean(context.Background(), "repository")
	require.Error(t, err)
	assert.True(t, beanerrors.IsConstruction(err))
	assert.True(t, beanerrors.IsSetterResolution(err))

	var be *beanerrors.BeanError
	require.True(t, beanerrors.As(err, &be))
	assert.Equal(t, beanerrors.StageInitParams, be.Stage)
	assert.Zero(t, ev.count("construct:repository"), "post-construct does not run on failure")
}

func TestEngine_UnknownBean(t *testing.T) {
	c := newTestContainer(t, nil)

	_, err := c.GetBean(context.Background(), "ghost")
	assert.True(t, beanerrors.IsUnknownBean(err))
}

func TestEngine_UnknownDependencyFailsConstruction(t *testing.T) {
	c := newTestContainer(t, []*descriptor.Descriptor{{
		Name:        "a",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("ghost")),
	}})

	err := c.InstantiateAndRegisterAll(context.Background())
	require.Error(t, err)
	assert.True(t, beanerrors.IsConstruction(err))
	assert.True(t, beanerrors.IsUnknownBean(err))
}

func TestEngine_ConstructorFailures(t *testing.T) {
	tests := []struct {
		name    string
		factory func(context.Context) (any, error)
		post    descriptor.Hook
		stage   string
	}{
		{
			name:    "factory error",
			factory: func(context.Context) (any, error) { return nil, errors.New("no disk") },
			stage:   beanerrors.StageInstantiate,
		},
		{
			name:    "nil instance",
			factory: func(context.Context) (any, error) { return nil, nil },
			stage:   beanerrors.StageInstantiate,
		},
		{
			name:    "post-construct error",
			factory: newFactory,
			post:    func(context.Context, any) error { return errors.New("not ready") },
			stage:   beanerrors.StagePostConstruct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContainer(t, []*descriptor.Descriptor{{
				Name:          "a",
				Factory:       tt.factory,
				PostConstruct: tt.post,
			}})

			_, err := c.GetBean(context.Background(), "a")
			require.Error(t, err)

			var be *beanerrors.BeanError
			require.True(t, beanerrors.As(err, &be))
			assert.Equal(t, beanerrors.CodeConstructionFailed, be.Code)
			assert.Equal(t, tt.stage, be.Stage)
			assert.Equal(t, "a", be.Bean)
		})
	}
}

func TestEngine_FieldInjection(t *testing.T) {
	ev := &events{}
	c := newTestContainer(t, []*descriptor.Descriptor{
		{
			Name:    "consumer",
			Factory: newFactory,
			Fields:  []descriptor.FieldInjection{anyField("Repo", descriptor.RefType("app.Repository"))},
		},
		repositoryDescriptor(ev),
	})

	v, err := Resolve[*value](context.Background(), c, "consumer")
	require.NoError(t, err)
	require.Len(t, v.fields, 1)
	assert.IsType(t, &repository{}, v.fields[0])
}

func TestEngine_MixedInjectionIsRejected(t *testing.T) {
	d := &descriptor.Descriptor{
		Name:        "mixed",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("x")),
		Fields:      []descriptor.FieldInjection{anyField("X", descriptor.Ref("x"))},
	}
	e := NewEngine(NewRegistry(nil), Observers{})

	_, _, err := e.createInstance(context.Background(), d)
	assert.True(t, beanerrors.IsConfiguration(err))
}

func TestEngine_ExternalInstances(t *testing.T) {
	clock := &value{}
	c := newTestContainer(t, []*descriptor.Descriptor{{
		Name:        "a",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("clock")),
	}}, WithInstance("clock", clock))

	a, err := Resolve[*value](context.Background(), c, "a")
	require.NoError(t, err)
	assert.Same(t, clock, a.args.At(0))
	assert.True(t, c.Has("clock"))
	assert.NotContains(t, c.Order(), "clock")
}

func TestEngine_RegisterAfterBootstrap(t *testing.T) {
	c := newTestContainer(t, []*descriptor.Descriptor{singleton("a")})

	require.NoError(t, c.Register(&descriptor.Descriptor{
		Name:        "b",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("a")),
	}))
	assert.Equal(t, []string{"a", "b"}, c.Order())

	require.NoError(t, c.InstantiateAndRegisterAll(context.Background()))
	err := c.Register(singleton("c"))
	assert.True(t, beanerrors.IsLifecycle(err))
}

func TestEngine_RegisterClosingCycle(t *testing.T) {
	c := newTestContainer(t, []*descriptor.Descriptor{{
		Name:        "a",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("b")),
	}})
	require.NoError(t, c.Register(&descriptor.Descriptor{
		Name:        "b",
		Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("a")),
	}))

	err := c.InstantiateAndRegisterAll(context.Background())
	assert.True(t, beanerrors.IsCyclicDependency(err))
}

func TestResolve_TypeMismatch(t *testing.T) {
	c := newTestContainer(t, []*descriptor.Descriptor{singleton("a")})

	_, err := Resolve[*repository](context.Background(), c, "a")
	assert.True(t, beanerrors.IsConfiguration(err))

	assert.Panics(t, func() {
		Must[*repository](context.Background(), c, "a")
	})
	assert.NotPanics(t, func() {
		Must[*value](context.Background(), c, "a")
	})
}
