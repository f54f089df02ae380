package descriptor

import (
	"context"
	"fmt"
)

// NewConstructor builds a Constructor from a function and its parameters.
func NewConstructor(fn func(ctx context.Context, args Args) (any, error), params ...Dependency) *Constructor {
	return &Constructor{Params: params, New: fn}
}

// ArgAs returns the i-th argument typed as T.
func ArgAs[T any](args Args, i int) (T, error) {
	var zero T
	raw := args.At(i)
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("argument %d is %T, not %T", i, raw, zero)
	}
	return v, nil
}

// SetterFor builds a Setter that accepts values of type V on instances of
// type T.
//
//	descriptor.SetterFor("setDataSource", func(r *Repository, ds string) { r.DataSource = ds })
func SetterFor[T any, V any](name string, set func(T, V)) Setter {
	return Setter{
		Name: name,
		Accepts: func(value any) bool {
			_, ok := value.(V)
			return ok
		},
		Apply: func(instance, value any) error {
			owner, ok := instance.(T)
			if !ok {
				var zero T
				return fmt.Errorf("setter %s: instance is %T, not %T", name, instance, zero)
			}
			v, ok := value.(V)
			if !ok {
				var zero V
				return fmt.Errorf("setter %s: value is %T, not %T", name, value, zero)
			}
			set(owner, v)
			return nil
		},
	}
}

// FieldFor builds a FieldInjection that assigns a V to an instance of type T.
// For deferred dependencies V is Provider.
func FieldFor[T any, V any](name string, dep Dependency, assign func(T, V)) FieldInjection {
	return FieldInjection{
		Name:       name,
		Dependency: dep,
		Assign: func(instance, value any) error {
			owner, ok := instance.(T)
			if !ok {
				var zero T
				return fmt.Errorf("field %s: instance is %T, not %T", name, instance, zero)
			}
			v, ok := value.(V)
			if !ok {
				var zero V
				return fmt.Errorf("field %s: value is %T, not %T", name, value, zero)
			}
			assign(owner, v)
			return nil
		},
	}
}

// HookFor adapts a typed lifecycle callback to a Hook.
func HookFor[T any](fn func(ctx context.Context, instance T) error) Hook {
	return func(ctx context.Context, instance any) error {
		typed, ok := instance.(T)
		if !ok {
			var zero T
			return fmt.Errorf("hook: instance is %T, not %T", instance, zero)
		}
		return fn(ctx, typed)
	}
}

// FactoryFor adapts a typed zero-argument constructor.
func FactoryFor[T any](fn func() T) func(ctx context.Context) (any, error) {
	return func(context.Context) (any, error) {
		return fn(), nil
	}
}
