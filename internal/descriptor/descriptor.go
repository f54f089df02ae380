package descriptor

import (
	"context"
	"maps"
	"slices"
	"sort"

	"github.com/xraph/beans/internal/errors"
)

// Constructor is the selected constructor of a bean: an ordered parameter list
// and the function that allocates the instance from the resolved arguments.
type Constructor struct {
	Params []Dependency
	New    func(ctx context.Context, args Args) (any, error)
}

// FieldInjection assigns a dependency to a field of an already allocated
// instance. Direct dependencies pass the resolved bean, deferred ones pass a
// Provider.
type FieldInjection struct {
	Name       string
	Dependency Dependency
	Assign     func(instance, value any) error
}

// Setter is a single-argument property setter. Several setters may share a
// name when they accept different value types.
type Setter struct {
	Name    string
	Accepts func(value any) bool
	Apply   func(instance, value any) error
}

// Hook is a post-construct or pre-destroy callback.
type Hook func(ctx context.Context, instance any) error

// Descriptor is the immutable metadata describing how to build and manage one
// bean. It carries closures instead of type information, so the container
// never needs reflection.
type Descriptor struct {
	// Name is the explicit bean name. When empty, TypeName is used.
	Name string

	// TypeName is the canonical type name of the bean. By-type dependency
	// references are matched against it.
	TypeName string

	Scope Scope

	// Constructor is the selected constructor. When nil, Factory is used as a
	// zero-argument constructor.
	Constructor *Constructor
	Factory     func(ctx context.Context) (any, error)

	Fields []FieldInjection

	// InitParams maps a setter name to an already typed value.
	InitParams map[string]any
	Setters    []Setter

	PostConstruct Hook
	PreDestroy    Hook
}

// PreferredName returns the explicit name, else the canonical type name.
func (d *Descriptor) PreferredName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.TypeName
}

// ConstructorParams returns the constructor parameter list, if any.
func (d *Descriptor) ConstructorParams() []Dependency {
	if d.Constructor == nil {
		return nil
	}
	return d.Constructor.Params
}

// Dependencies returns every dependency reference of the bean, constructor
// parameters first, then fields.
func (d *Descriptor) Dependencies() []Dependency {
	params := d.ConstructorParams()
	out := make([]Dependency, 0, len(params)+len(d.Fields))
	out = append(out, params...)
	for _, f := range d.Fields {
		out = append(out, f.Dependency)
	}
	return out
}

// SettersNamed returns the setters registered under name, in declaration order.
func (d *Descriptor) SettersNamed(name string) []Setter {
	var out []Setter
	for _, s := range d.Setters {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// InitParamKeys returns the initialization property names in sorted order.
func (d *Descriptor) InitParamKeys() []string {
	keys := make([]string, 0, len(d.InitParams))
	for k := range d.InitParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MixesInjectionStyles reports whether the descriptor populates both field
// injection and a constructor with parameters.
func (d *Descriptor) MixesInjectionStyles() bool {
	return len(d.Fields) > 0 && len(d.ConstructorParams()) > 0
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	name := d.PreferredName()
	if name == "" {
		return errors.ErrConfiguration("", errors.StageValidate, "descriptor has neither a name nor a type name")
	}
	if !d.Scope.Valid() {
		return errors.ErrConfiguration(name, errors.StageValidate, "unrecognized scope")
	}
	if d.MixesInjectionStyles() {
		return errors.ErrConfiguration(name, errors.StageValidate,
			"only one injection style is allowed: fields or constructor")
	}
	if d.Constructor != nil && d.Constructor.New == nil {
		return errors.ErrConfiguration(name, errors.StageValidate, "constructor has no New function")
	}
	if d.Constructor == nil && d.Factory == nil {
		return errors.ErrConfiguration(name, errors.StageValidate, "no constructor or zero-argument factory")
	}
	for _, p := range d.ConstructorParams() {
		if p.Target == "" {
			return errors.ErrConfiguration(name, errors.StageValidate, "constructor parameter without a target")
		}
	}
	for _, f := range d.Fields {
		if f.Dependency.Target == "" {
			return errors.ErrConfiguration(name, errors.StageValidate, "field "+f.Name+" has no target")
		}
		if f.Assign == nil {
			return errors.ErrConfiguration(name, errors.StageValidate, "field "+f.Name+" has no assigner")
		}
	}
	for _, s := range d.Setters {
		if s.Name == "" || s.Accepts == nil || s.Apply == nil {
			return errors.ErrConfiguration(name, errors.StageValidate, "incomplete setter "+s.Name)
		}
	}
	return nil
}

// clone returns a copy that shares closures but not slices or maps, so the
// caller can no longer mutate what the store holds.
func (d *Descriptor) clone() *Descriptor {
	cp := *d
	if d.Constructor != nil {
		ctor := *d.Constructor
		ctor.Params = slices.Clone(d.Constructor.Params)
		cp.Constructor = &ctor
	}
	cp.Fields = slices.Clone(d.Fields)
	cp.Setters = slices.Clone(d.Setters)
	if d.InitParams != nil {
		cp.InitParams = maps.Clone(d.InitParams)
	}
	return &cp
}
