package descriptor

import (
	"strings"

	"github.com/xraph/beans/internal/errors"
)

// Scope controls how many instances of a bean the container creates and who
// owns them.
type Scope int

const (
	// Singleton is the default scope. One instance is built during the eager
	// sweep and shared for the lifetime of the container.
	Singleton Scope = iota

	// Prototype means a fresh instance is built on every request. Prototype
	// instances are never cached by the registry.
	Prototype

	// ThreadScoped means one instance per execution context. Each context
	// builds its own instance on first access and reuses it afterwards.
	ThreadScoped
)

// String returns the configuration spelling of the scope.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	case ThreadScoped:
		return "thread"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s >= Singleton && s <= ThreadScoped
}

// ParseScope parses the configuration spelling of a scope.
func ParseScope(value string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "singleton":
		return Singleton, nil
	case "prototype":
		return Prototype, nil
	case "thread", "thread-scoped", "threadscoped":
		return ThreadScoped, nil
	default:
		return Singleton, errors.ErrConfiguration("", errors.StageValidate, "unknown bean scope "+value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	parsed, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
