package beans

import (
	"context"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/di"
)

// Container provides dependency injection with lifecycle management.
type Container = di.Container

// BeanInfo contains diagnostic information.
type BeanInfo = di.BeanInfo

// Option configures a Container.
type Option = di.Option

// Store is an ordered set of descriptors.
type Store = descriptor.Store

// Container options.
var (
	WithConfig         = di.WithConfig
	WithLogger         = di.WithLogger
	WithMetrics        = di.WithMetrics
	WithRegisterer     = di.WithRegisterer
	WithTracerProvider = di.WithTracerProvider
	WithInstance       = di.WithInstance
)

// RootContext is the execution context of contexts that were not given one.
const RootContext = di.RootContext

// New creates a container over descriptors.
func New(descriptors []*Descriptor, opts ...Option) (*Container, error) {
	store, err := descriptor.NewStore(descriptors...)
	if err != nil {
		return nil, err
	}
	return di.New(store, opts...)
}

// NewFromStore creates a container over an existing store.
func NewFromStore(store *Store, opts ...Option) (*Container, error) {
	return di.New(store, opts...)
}

// NewStore creates a store holding descriptors.
func NewStore(descriptors ...*Descriptor) (*Store, error) {
	return descriptor.NewStore(descriptors...)
}

// WithExecutionContext returns a child of ctx that owns its own set of
// thread-scoped beans.
func WithExecutionContext(ctx context.Context) context.Context {
	return di.WithExecutionContext(ctx)
}

// ExecutionContextID returns the execution context id carried by ctx.
func ExecutionContextID(ctx context.Context) string {
	return di.ExecutionContextID(ctx)
}
