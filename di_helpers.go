package beans

import (
	"context"
	"fmt"

	"github.com/xraph/beans/internal/di"
)

// Get resolves a bean with type safety.
func Get[T any](ctx context.Context, c *Container, name string) (T, error) {
	return di.Resolve[T](ctx, c, name)
}

// MustGet resolves or panics - use only during startup
func MustGet[T any](ctx context.Context, c *Container, name string) T {
	return di.Must[T](ctx, c, name)
}

// TypedProvider is a Provider whose values are asserted to T.
type TypedProvider[T any] struct {
	p Provider
}

// ProviderOf wraps p so that Get returns T.
func ProviderOf[T any](p Provider) TypedProvider[T] {
	return TypedProvider[T]{p: p}
}

// ProviderArg returns the i-th constructor argument as a typed provider. The
// parameter must have been declared with Deferred or DeferredType.
func ProviderArg[T any](args Args, i int) (TypedProvider[T], error) {
	p, ok := args.At(i).(Provider)
	if !ok {
		return TypedProvider[T]{}, fmt.Errorf("argument %d is %T, not a provider", i, args.At(i))
	}
	return ProviderOf[T](p), nil
}

// Get performs a fresh lookup of the target bean.
func (tp TypedProvider[T]) Get(ctx context.Context) (T, error) {
	return di.Get[T](ctx, tp.p)
}

// Target returns the name of the bean the provider resolves.
func (tp TypedProvider[T]) Target() string {
	return tp.p.Target()
}
