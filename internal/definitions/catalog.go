package definitions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

// Binding is the Go side of a bean type: how to allocate it and which
// injection points and hooks it offers. Definitions choose among them.
type Binding struct {
	// New allocates an instance from constructor arguments. It is required
	// when a definition lists constructor parameters.
	New func(ctx context.Context, args descriptor.Args) (any, error)

	// Factory allocates an instance without arguments. When nil, New is
	// called with no arguments.
	Factory func(ctx context.Context) (any, error)

	// Fields maps an injectable field name to its assigner.
	Fields map[string]func(instance, value any) error

	Setters []descriptor.Setter

	PostConstruct descriptor.Hook
	PreDestroy    descriptor.Hook
}

// Catalog maps type names to bindings. It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bindings: make(map[string]Binding)}
}

// Bind registers the binding of typeName.
func (c *Catalog) Bind(typeName string, b Binding) error {
	if typeName == "" {
		return errors.ErrConfiguration("", errors.StageRegister, "binding without a type name")
	}
	if b.New == nil && b.Factory == nil {
		return errors.ErrConfiguration("", errors.StageRegister, "binding for "+typeName+" has no constructor")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bindings[typeName]; exists {
		return errors.ErrConfiguration("", errors.StageRegister, "duplicate binding for "+typeName)
	}
	c.bindings[typeName] = b
	return nil
}

// MustBind is Bind that panics, for package-level catalogs.
func (c *Catalog) MustBind(typeName string, b Binding) *Catalog {
	if err := c.Bind(typeName, b); err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the binding of typeName.
func (c *Catalog) Lookup(typeName string) (Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bindings[typeName]
	return b, ok
}

// Types returns the bound type names in sorted order.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.bindings))
	for t := range c.bindings {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Descriptor builds the descriptor of def from its type's binding.
func (c *Catalog) Descriptor(def Definition) (*descriptor.Descriptor, error) {
	typeName := def.TypeName()
	b, ok := c.Lookup(typeName)
	if !ok {
		return nil, errors.ErrConfiguration(def.Name, errors.StageValidate, "no binding for type "+typeName)
	}
	scope, err := descriptor.ParseScope(def.Scope)
	if err != nil {
		return nil, errors.ErrConfiguration(def.Name, errors.StageValidate, "unknown bean scope "+def.Scope)
	}

	d := &descriptor.Descriptor{
		Name:          def.Name,
		TypeName:      typeName,
		Scope:         scope,
		InitParams:    def.InitParams,
		Setters:       b.Setters,
		PostConstruct: b.PostConstruct,
		PreDestroy:    b.PreDestroy,
	}

	switch {
	case len(def.ConstructorParams) > 0:
		if b.New == nil {
			return nil, errors.ErrConfiguration(def.Name, errors.StageValidate,
				fmt.Sprintf("type %s has no constructor taking %d parameters", typeName, len(def.ConstructorParams)))
		}
		params := make([]descriptor.Dependency, len(def.ConstructorParams))
		for i, ref := range def.ConstructorParams {
			if params[i], err = ParseRef(ref); err != nil {
				return nil, errors.ErrConfiguration(def.Name, errors.StageValidate, err.Error())
			}
		}
		d.Constructor = descriptor.NewConstructor(b.New, params...)
	case b.Factory != nil:
		d.Factory = b.Factory
	default:
		d.Constructor = descriptor.NewConstructor(b.New)
	}

	for _, field := range def.FieldNames() {
		assign, ok := b.Fields[field]
		if !ok {
			return nil, errors.ErrConfiguration(def.Name, errors.StageValidate,
				fmt.Sprintf("type %s has no injectable field %s", typeName, field))
		}
		dep, err := ParseRef(def.Fields[field])
		if err != nil {
			return nil, errors.ErrConfiguration(def.Name, errors.StageValidate, "field "+field+": "+err.Error())
		}
		d.Fields = append(d.Fields, descriptor.FieldInjection{Name: field, Dependency: dep, Assign: assign})
	}
	return d, nil
}

// Descriptors builds a store from defs, in definition order.
func (c *Catalog) Descriptors(defs []Definition) (*descriptor.Store, error) {
	store, _ := descriptor.NewStore()
	for _, def := range defs {
		d, err := c.Descriptor(def)
		if err != nil {
			return nil, err
		}
		if err := store.Add(d); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Load reads a definitions file and builds its store.
func (c *Catalog) Load(path string) (*descriptor.Store, error) {
	defs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.Descriptors(defs)
}

// errDefinitionOnly is returned by the placeholders of Graph descriptors.
var errDefinitionOnly = errors.New("descriptor built from a definition only, it cannot be instantiated")

// Graph builds descriptors that carry the names, scopes and references of
// defs but no Go binding. They can be ordered and inspected, not built.
func Graph(defs []Definition) (*descriptor.Store, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}

	store, _ := descriptor.NewStore()
	for _, def := range defs {
		scope, _ := descriptor.ParseScope(def.Scope)
		d := &descriptor.Descriptor{
			Name:       def.Name,
			TypeName:   def.TypeName(),
			Scope:      scope,
			InitParams: def.InitParams,
		}
		if len(def.ConstructorParams) > 0 {
			params := make([]descriptor.Dependency, len(def.ConstructorParams))
			for i, ref := range def.ConstructorParams {
				params[i], _ = ParseRef(ref)
			}
			d.Constructor = descriptor.NewConstructor(func(context.Context, descriptor.Args) (any, error) {
				return nil, errDefinitionOnly
			}, params...)
		} else {
			d.Factory = func(context.Context) (any, error) { return nil, errDefinitionOnly }
		}
		for _, field := range def.FieldNames() {
			dep, _ := ParseRef(def.Fields[field])
			d.Fields = append(d.Fields, descriptor.FieldInjection{
				Name:       field,
				Dependency: dep,
				Assign:     func(any, any) error { return errDefinitionOnly },
			})
		}
		if err := store.Add(d); err != nil {
			return nil, err
		}
	}
	return store, nil
}
