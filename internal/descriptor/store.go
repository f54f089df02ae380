package descriptor

import (
	"github.com/xraph/beans/internal/errors"
)

// Store is the ordered, immutable-after-add set of descriptors handed to the
// container. Registration order is preserved and used to break ties when
// ordering construction.
type Store struct {
	list   []*Descriptor
	byName map[string]*Descriptor
	byType map[string][]string
}

// NewStore creates a store holding the given descriptors in order.
func NewStore(descriptors ...*Descriptor) (*Store, error) {
	s := &Store{
		byName: make(map[string]*Descriptor),
		byType: make(map[string][]string),
	}
	for _, d := range descriptors {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add validates d and appends a private copy of it.
func (s *Store) Add(d *Descriptor) error {
	if d == nil {
		return errors.ErrConfiguration("", errors.StageRegister, "nil descriptor")
	}
	if err := d.Validate(); err != nil {
		return err
	}

	name := d.PreferredName()
	if _, exists := s.byName[name]; exists {
		return errors.ErrConfiguration(name, errors.StageRegister, "duplicate bean name")
	}

	cp := d.clone()
	s.list = append(s.list, cp)
	s.byName[name] = cp
	if cp.TypeName != "" {
		s.byType[cp.TypeName] = append(s.byType[cp.TypeName], name)
	}
	return nil
}

// Len returns the number of descriptors.
func (s *Store) Len() int { return len(s.list) }

// Descriptors returns the descriptors in registration order.
func (s *Store) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(s.list))
	copy(out, s.list)
	return out
}

// Names returns the preferred names in registration order.
func (s *Store) Names() []string {
	out := make([]string, len(s.list))
	for i, d := range s.list {
		out[i] = d.PreferredName()
	}
	return out
}

// Lookup finds a descriptor by preferred name, falling back to a type name
// that identifies exactly one descriptor.
func (s *Store) Lookup(name string) (*Descriptor, bool) {
	canonical, ok := s.Canonical(name)
	if !ok {
		return nil, false
	}
	return s.byName[canonical], true
}

// Canonical maps a name or unambiguous type name to the preferred name of the
// descriptor it denotes.
func (s *Store) Canonical(name string) (string, bool) {
	if _, ok := s.byName[name]; ok {
		return name, true
	}
	if names := s.byType[name]; len(names) == 1 {
		return names[0], true
	}
	return "", false
}

// Target returns the preferred name a dependency reference resolves to.
func (s *Store) Target(dep Dependency) (string, bool) {
	if dep.ByType {
		if names := s.byType[dep.Target]; len(names) == 1 {
			return names[0], true
		}
		// Type names may double as explicit names.
		if _, ok := s.byName[dep.Target]; ok {
			return dep.Target, true
		}
		return "", false
	}
	return s.Canonical(dep.Target)
}
