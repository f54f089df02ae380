// Package definitions reads bean definitions from YAML or JSON files and
// turns them into descriptors.
package definitions

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

// Format is the encoding of a definitions file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// File is the root of a definitions file.
type File struct {
	Beans []Definition `json:"beans" yaml:"beans"`
}

// Definition describes one bean as written in a definitions file.
type Definition struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Class string `json:"class,omitempty" yaml:"class,omitempty"` // Alias for Type
	Scope string `json:"scope" yaml:"scope"`

	// ConstructorParams lists bean references in parameter order. A
	// reference is a bean name, "type:<type name>", or either of those
	// wrapped in "Provider<...>".
	ConstructorParams []string `json:"constructorParams,omitempty" yaml:"constructorParams,omitempty"`

	// Fields maps a field name to a bean reference.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`

	InitParams map[string]any `json:"initParams,omitempty" yaml:"initParams,omitempty"`
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.ErrConfiguration("", errors.StageValidate,
			fmt.Sprintf("unsupported file format: %s (expected .yaml, .yml, or .json)", filepath.Ext(path)))
	}
}

// ReadFile reads and validates the definitions in path.
func ReadFile(path string) ([]Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions: %w", err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read decodes and validates definitions.
func Read(r io.Reader, format Format) ([]Definition, error) {
	var file File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && err != io.EOF {
			return nil, errors.ErrConfiguration("", errors.StageValidate, "failed to parse YAML: "+err.Error())
		}
	case FormatJSON:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read definitions: %w", err)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			dec.DisallowUnknownFields()
			if err := dec.Decode(&file); err != nil {
				return nil, errors.ErrConfiguration("", errors.StageValidate, "failed to parse JSON: "+err.Error())
			}
		}
	default:
		return nil, errors.ErrConfiguration("", errors.StageValidate, fmt.Sprintf("unknown definitions format %q", format))
	}

	if err := Validate(file.Beans); err != nil {
		return nil, err
	}
	for i := range file.Beans {
		file.Beans[i].normalize()
	}
	return file.Beans, nil
}

// Validate checks that every definition names a bean, a type and a known
// scope, that names are unique and that references are well formed.
func Validate(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return errors.ErrConfiguration("", errors.StageValidate, fmt.Sprintf("definition %d has no name", i))
		}
		if def.TypeName() == "" {
			return errors.ErrConfiguration(def.Name, errors.StageValidate, "definition has no type")
		}
		if def.Scope == "" {
			return errors.ErrConfiguration(def.Name, errors.StageValidate, "definition has no scope")
		}
		if _, err := descriptor.ParseScope(def.Scope); err != nil {
			return errors.ErrConfiguration(def.Name, errors.StageValidate, "unknown bean scope "+def.Scope)
		}
		if _, dup := seen[def.Name]; dup {
			return errors.ErrConfiguration(def.Name, errors.StageValidate, "duplicate bean name")
		}
		seen[def.Name] = struct{}{}

		if len(def.ConstructorParams) > 0 && len(def.Fields) > 0 {
			return errors.ErrConfiguration(def.Name, errors.StageValidate,
				"only one injection style is allowed: fields or constructor")
		}
		for _, ref := range def.ConstructorParams {
			if _, err := ParseRef(ref); err != nil {
				return errors.ErrConfiguration(def.Name, errors.StageValidate, err.Error())
			}
		}
		for field, ref := range def.Fields {
			if _, err := ParseRef(ref); err != nil {
				return errors.ErrConfiguration(def.Name, errors.StageValidate, "field "+field+": "+err.Error())
			}
		}
	}
	return nil
}

// TypeName returns the bean type, taking the class alias into account.
func (d Definition) TypeName() string {
	if d.Type != "" {
		return d.Type
	}
	return d.Class
}

// Dependencies returns the references of the definition, constructor
// parameters first, then fields in name order.
func (d Definition) Dependencies() []descriptor.Dependency {
	deps := make([]descriptor.Dependency, 0, len(d.ConstructorParams)+len(d.Fields))
	for _, ref := range d.ConstructorParams {
		dep, _ := ParseRef(ref)
		deps = append(deps, dep)
	}
	for _, field := range d.FieldNames() {
		dep, _ := ParseRef(d.Fields[field])
		deps = append(deps, dep)
	}
	return deps
}

// FieldNames returns the injected field names in sorted order.
func (d Definition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRef parses a bean reference.
//
//	repo                  -> by name
//	type:app.Repository   -> by type
//	Provider<repo>        -> deferred, by name
//	Provider<type:app.X>  -> deferred, by type
func ParseRef(ref string) (descriptor.Dependency, error) {
	ref = strings.TrimSpace(ref)
	deferred := false
	if strings.HasPrefix(ref, "Provider<") {
		if !strings.HasSuffix(ref, ">") {
			return descriptor.Dependency{}, fmt.Errorf("malformed provider reference %q", ref)
		}
		ref = strings.TrimSpace(ref[len("Provider<") : len(ref)-1])
		deferred = true
	}

	byType := false
	if rest, ok := strings.CutPrefix(ref, "type:"); ok {
		ref = strings.TrimSpace(rest)
		byType = true
	}
	if ref == "" {
		return descriptor.Dependency{}, fmt.Errorf("empty bean reference")
	}
	return descriptor.Dependency{Target: ref, ByType: byType, Deferred: deferred}, nil
}

// normalize turns decoded JSON numbers into int when they are integral and
// float64 otherwise, so setters see the same types for YAML and JSON.
func (d *Definition) normalize() {
	for k, v := range d.InitParams {
		d.InitParams[k] = normalizeValue(v)
	}
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func normalizeValue(v any) any {
	n, ok := v.(number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return v
}
