package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

func TestDependencyGraph_TopologicalSort_Simple(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", nil)
	g.AddNode("b", []string{"a"})
	g.AddNode("c", []string{"b"})

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, result)
}

func TestDependencyGraph_TopologicalSort_Complex(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("d", []string{"b", "c"})
	g.AddNode("c", []string{"a"})
	g.AddNode("b", []string{"a"})
	g.AddNode("a", nil)

	result, err := g.TopologicalSort()
	require.NoError(t, err)

	aIdx := indexOf(result, "a")
	bIdx := indexOf(result, "b")
	cIdx := indexOf(result, "c")
	dIdx := indexOf(result, "d")

	assert.Less(t, aIdx, bIdx)
	assert.Less(t, aIdx, cIdx)
	assert.Less(t, bIdx, dIdx)
	assert.Less(t, cIdx, dIdx)
	// c was registered before b, so it is emitted first once a is done.
	assert.Equal(t, []string{"a", "c", "b", "d"}, result)
}

func TestDependencyGraph_TopologicalSort_KeepsRegistrationOrder(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("config", nil)
	g.AddNode("logger", nil)
	g.AddNode("db", []string{"config"})
	g.AddNode("cache", nil)

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "logger", "db", "cache"}, result)
}

func TestDependencyGraph_TopologicalSort_CircularDependency(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []string{"b"})
	g.AddNode("b", []string{"a"})

	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, errors.ErrCyclicDependencySentinel)

	var be *errors.BeanError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"a", "b", "a"}, be.Chain)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestDependencyGraph_TopologicalSort_CycleBehindHealthyNodes(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("root", nil)
	g.AddNode("x", []string{"root", "z"})
	g.AddNode("y", []string{"x"})
	g.AddNode("z", []string{"y"})
	g.AddNode("leaf", []string{"x"})

	_, err := g.TopologicalSort()
	require.Error(t, err)

	var be *errors.BeanError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"x", "z", "y", "x"}, be.Chain)
	assert.Equal(t, "x", be.Bean)
}

func TestDependencyGraph_TopologicalSort_SelfReference(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []string{"a"})

	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, errors.ErrCyclicDependencySentinel)

	var be *errors.BeanError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"a", "a"}, be.Chain)
}

func TestDependencyGraph_TopologicalSort_MissingDependency(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []string{"nonexistent"})

	// Should not error - unknown targets are resolved later, if at all
	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result)
}

func TestDependencyGraph_TopologicalSort_DuplicateEdges(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", nil)
	g.AddNode("b", []string{"a", "a"})

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result)
}

func TestDependencyGraph_TopologicalSort_Empty(t *testing.T) {
	g := NewDependencyGraph()

	result, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestResolveOrder_DeferredEdgesBreakCycles(t *testing.T) {
	store := mustStore(t,
		&descriptor.Descriptor{
			Name:        "a",
			Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("b")),
		},
		&descriptor.Descriptor{
			Name:        "b",
			Constructor: descriptor.NewConstructor(newValue, descriptor.Deferred("a")),
		},
	)

	order, err := ResolveOrder(store)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestResolveOrder_DirectCycleFails(t *testing.T) {
	store := mustStore(t,
		&descriptor.Descriptor{
			Name:        "a",
			Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("b")),
		},
		&descriptor.Descriptor{
			Name:    "b",
			Factory: newFactory,
			Fields:  []descriptor.FieldInjection{anyField("A", descriptor.Ref("a"))},
		},
	)

	_, err := ResolveOrder(store)
	assert.True(t, errors.IsCyclicDependency(err))
}

func TestResolveOrder_ByTypeEdges(t *testing.T) {
	store := mustStore(t,
		&descriptor.Descriptor{
			Name:        "service",
			Constructor: descriptor.NewConstructor(newValue, descriptor.RefType("app.Repository")),
		},
		&descriptor.Descriptor{
			TypeName: "app.Repository",
			Factory:  newFactory,
		},
		&descriptor.Descriptor{
			Name:        "external",
			Constructor: descriptor.NewConstructor(newValue, descriptor.Ref("clock")),
		},
	)

	order, err := ResolveOrder(store)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.Repository", "service", "external"}, order)
}

// TestResolveOrder_IsConsistentPermutation checks every edge of a larger
// generated graph against the returned order.
func TestResolveOrder_IsConsistentPermutation(t *testing.T) {
	const n = 40
	var ds []*descriptor.Descriptor
	for i := 0; i < n; i++ {
		var params []descriptor.Dependency
		// Depend on a few later-registered beans so registration order alone
		// is never valid.
		for _, j := range []int{i + 3, i + 7, i*2 + 1} {
			if j < n {
				params = append(params, descriptor.Ref(beanName(j)))
			}
		}
		if i%5 == 0 && i > 0 {
			params = append(params, descriptor.Deferred(beanName(i-1)))
		}
		ds = append(ds, &descriptor.Descriptor{
			Name:        beanName(i),
			Constructor: descriptor.NewConstructor(newValue, params...),
		})
	}
	store := mustStore(t, ds...)

	order, err := ResolveOrder(store)
	require.NoError(t, err)
	require.Len(t, order, n)
	assert.ElementsMatch(t, store.Names(), order)

	for _, d := range store.Descriptors() {
		for _, dep := range d.Dependencies() {
			if dep.Deferred {
				continue
			}
			assert.Less(t, indexOf(order, dep.Target), indexOf(order, d.Name),
				"%s must be built before %s", dep.Target, d.Name)
		}
	}
}

func indexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}
