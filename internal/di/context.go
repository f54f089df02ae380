package di

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// RootContext is the execution context id of every context that was not
// given one with WithExecutionContext.
const RootContext = "root"

type contextKey int

const (
	executionKey contextKey = iota
	chainKey
	barrierKey
)

// WithExecutionContext returns a child of ctx that owns a fresh set of
// thread-scoped beans. Lookups made with the returned context, or any context
// derived from it, share those instances.
func WithExecutionContext(ctx context.Context) context.Context {
	return WithExecutionContextID(ctx, uuid.NewString())
}

// WithExecutionContextID is WithExecutionContext with a caller-chosen id.
func WithExecutionContextID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = RootContext
	}
	return context.WithValue(ctx, executionKey, id)
}

// ExecutionContextID returns the execution context id carried by ctx.
func ExecutionContextID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(executionKey).(string); ok && id != "" {
			return id
		}
	}
	return RootContext
}

// constructionChain returns the names of the beans under construction on
// this call path, outermost first.
func constructionChain(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey).([]string)
	return chain
}

func withConstruction(ctx context.Context, name string) context.Context {
	chain := constructionChain(ctx)
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey, append(next, name))
}

// cycleThrough returns the closed chain that building name would form, or
// nil when name is not already under construction.
func cycleThrough(ctx context.Context, name string) []string {
	chain := constructionChain(ctx)
	i := slices.Index(chain, name)
	if i < 0 {
		return nil
	}
	cycle := slices.Clone(chain[i:])
	return append(cycle, name)
}

// holdsBarrier reports whether the caller already holds the container
// barrier, either as part of a construction or of a shutdown sweep.
func holdsBarrier(ctx context.Context) bool {
	held, _ := ctx.Value(barrierKey).(bool)
	return held
}

func withBarrier(ctx context.Context) context.Context {
	if holdsBarrier(ctx) {
		return ctx
	}
	return context.WithValue(ctx, barrierKey, true)
}
