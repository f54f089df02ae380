package di

import (
	"context"

	"github.com/xraph/beans/internal/descriptor"
)

// provider is the deferred accessor injected for Provider<T> references.
// It is never memoized: every Get performs a fresh lookup, so a prototype
// target yields a new instance and a thread-scoped target yields the
// instance of the caller's execution context.
//
// Prototypes obtained through a provider are recorded with the instance
// that owns the provider and destroyed with it. Pass the ctx received by a
// constructor or hook on to Get so cyclic construction is detected.
type provider struct {
	engine *Engine
	target string
	holder *Holder
}

var _ descriptor.Provider = (*provider)(nil)

func newProvider(e *Engine, target string, holder *Holder) *provider {
	return &provider{engine: e, target: target, holder: holder}
}

func (p *provider) Get(ctx context.Context) (any, error) {
	return p.engine.lookup(ctx, p.target, p.holder)
}

func (p *provider) Target() string {
	return p.target
}

func (p *provider) String() string {
	return "Provider<" + p.target + ">"
}
