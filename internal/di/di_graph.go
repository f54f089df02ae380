package di

import (
	"container/heap"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

// DependencyGraph manages bean dependencies.
type DependencyGraph struct {
	nodes map[string]*node
	order []string // Preserve registration order
}

type node struct {
	name         string
	index        int
	dependencies []string
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with its dependencies.
// Ready nodes are emitted in the order they are added.
func (g *DependencyGraph) AddNode(name string, dependencies []string) {
	if n, exists := g.nodes[name]; exists {
		n.dependencies = append(n.dependencies, dependencies...)
		return
	}
	g.nodes[name] = &node{
		name:         name,
		index:        len(g.order),
		dependencies: dependencies,
	}
	g.order = append(g.order, name)
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int { return len(g.order) }

// DependenciesOf returns the known dependencies of name, deduplicated.
func (g *DependencyGraph) DependenciesOf(name string) []string {
	n := g.nodes[name]
	if n == nil {
		return nil
	}
	seen := make(map[string]bool, len(n.dependencies))
	out := make([]string, 0, len(n.dependencies))
	for _, dep := range n.dependencies {
		if _, known := g.nodes[dep]; !known || seen[dep] {
			continue
		}
		seen[dep] = true
		out = append(out, dep)
	}
	return out
}

// TopologicalSort returns nodes with every dependency before its dependents.
// Among the nodes that are ready at any point, the earliest registered one is
// emitted first, so an order that is already valid comes back unchanged.
// Dependencies on unknown nodes are ignored.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))

	for _, name := range g.order {
		deps := g.DependenciesOf(name)
		indegree[name] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := &readyQueue{}
	for _, name := range g.order {
		if indegree[name] == 0 {
			heap.Push(ready, g.nodes[name])
		}
	}

	result := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		result = append(result, n.name)
		for _, dependent := range dependents[n.name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				heap.Push(ready, g.nodes[dependent])
			}
		}
	}

	if len(result) < len(g.order) {
		return nil, errors.ErrCyclicDependency(g.findCycle(indegree))
	}
	return result, nil
}

// findCycle walks the nodes left with a positive indegree and returns one
// cycle as a closed chain, e.g. [a b a].
func (g *DependencyGraph) findCycle(indegree map[string]int) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range g.DependenciesOf(name) {
			if indegree[dep] == 0 {
				continue
			}
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						cycle = append(append(cycle, stack[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range g.order {
		if indegree[name] > 0 && state[name] == unvisited {
			if visit(name) {
				return cycle
			}
		}
	}
	return nil
}

// readyQueue is a min-heap of nodes keyed by registration index.
type readyQueue []*node

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i].index < q[j].index }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(*node)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// BuildGraph creates the dependency graph of a store. Only non-deferred
// references whose target resolves to a descriptor of the store become edges.
func BuildGraph(store *descriptor.Store) *DependencyGraph {
	g := NewDependencyGraph()
	for _, d := range store.Descriptors() {
		var deps []string
		for _, dep := range d.Dependencies() {
			if dep.Deferred {
				continue
			}
			if target, ok := store.Target(dep); ok {
				deps = append(deps, target)
			}
		}
		g.AddNode(d.PreferredName(), deps)
	}
	return g
}

// ResolveOrder computes the construction order of a store: dependencies
// before dependents, registration order among independent beans. It fails
// with a cyclic dependency error naming the offending chain.
func ResolveOrder(store *descriptor.Store) ([]string, error) {
	return BuildGraph(store).TopologicalSort()
}
