package descriptor

import "context"

// Dependency references another bean from a constructor parameter or an
// injected field.
type Dependency struct {
	// Target is the qualifier name, or the declared type name when ByType is set.
	Target string

	// ByType marks Target as a type name rather than an explicit qualifier.
	ByType bool

	// Deferred dependencies are injected as a Provider and resolved on every
	// Get. They never produce edges in the dependency graph.
	Deferred bool
}

// Ref references a bean by its qualifier name.
func Ref(name string) Dependency {
	return Dependency{Target: name}
}

// RefType references a bean by its declared type name.
func RefType(typeName string) Dependency {
	return Dependency{Target: typeName, ByType: true}
}

// Deferred references a bean by name through a Provider.
func Deferred(name string) Dependency {
	return Dependency{Target: name, Deferred: true}
}

// DeferredType references a bean by type name through a Provider.
func DeferredType(typeName string) Dependency {
	return Dependency{Target: typeName, ByType: true, Deferred: true}
}

func (d Dependency) String() string {
	target := d.Target
	if d.ByType {
		target = "type:" + target
	}
	if d.Deferred {
		return "Provider<" + target + ">"
	}
	return target
}

// Provider is a non-memoized accessor for a deferred dependency. Every call to
// Get performs a fresh lookup, so a Prototype target yields a new instance each
// time and a ThreadScoped target yields the instance of the calling context.
type Provider interface {
	Get(ctx context.Context) (any, error)
	Target() string
}

// Args is the ordered argument list handed to a constructor. Deferred
// parameters arrive as Provider values.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// At returns the i-th argument, or nil when i is out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}
