package di

import (
	"context"
	"fmt"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

// Resolve returns the bean registered under name typed as T.
func Resolve[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T
	instance, err := c.GetBean(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errors.ErrConfiguration(name, errors.StageLookup,
			fmt.Sprintf("bean is %T, not %T", instance, zero))
	}
	return typed, nil
}

// Must resolves or panics - use only during startup
func Must[T any](ctx context.Context, c *Container, name string) T {
	instance, err := Resolve[T](ctx, c, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", name, err))
	}
	return instance
}

// Get returns the next value of a provider typed as T.
func Get[T any](ctx context.Context, p descriptor.Provider) (T, error) {
	var zero T
	instance, err := p.Get(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errors.ErrConfiguration(p.Target(), errors.StageLookup,
			fmt.Sprintf("provider yields %T, not %T", instance, zero))
	}
	return typed, nil
}
