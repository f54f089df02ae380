package beans

import (
	"context"

	"github.com/xraph/beans/internal/descriptor"
)

// Scope controls how many instances of a bean exist and who owns them.
type Scope = descriptor.Scope

// Scopes.
const (
	Singleton    = descriptor.Singleton
	Prototype    = descriptor.Prototype
	ThreadScoped = descriptor.ThreadScoped
)

// ParseScope parses "singleton", "prototype" or "thread".
func ParseScope(value string) (Scope, error) {
	return descriptor.ParseScope(value)
}

// Descriptor types.
type (
	Descriptor     = descriptor.Descriptor
	Constructor    = descriptor.Constructor
	Dependency     = descriptor.Dependency
	FieldInjection = descriptor.FieldInjection
	Setter         = descriptor.Setter
	Hook           = descriptor.Hook
	Args           = descriptor.Args
	Provider       = descriptor.Provider
)

// Dependency references.
var (
	Ref          = descriptor.Ref
	RefType      = descriptor.RefType
	Deferred     = descriptor.Deferred
	DeferredType = descriptor.DeferredType
)

// NewConstructor builds a Constructor from a function and its parameters.
var NewConstructor = descriptor.NewConstructor

// ArgAs returns the i-th constructor argument typed as T.
func ArgAs[T any](args Args, i int) (T, error) {
	return descriptor.ArgAs[T](args, i)
}

// FactoryFor adapts a typed zero-argument constructor.
func FactoryFor[T any](fn func() T) func(ctx context.Context) (any, error) {
	return descriptor.FactoryFor(fn)
}

// SetterFor builds a setter accepting values of type V on instances of T.
func SetterFor[T any, V any](name string, set func(T, V)) Setter {
	return descriptor.SetterFor(name, set)
}

// FieldFor builds a field injection assigning a V to an instance of T.
func FieldFor[T any, V any](name string, dep Dependency, assign func(T, V)) FieldInjection {
	return descriptor.FieldFor(name, dep, assign)
}

// HookFor adapts a typed lifecycle callback.
func HookFor[T any](fn func(ctx context.Context, instance T) error) Hook {
	return descriptor.HookFor(fn)
}
