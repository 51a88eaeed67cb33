package schema

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed collections.yaml
var collectionsYAML []byte

// CollectionSpec describes one feature family.
type CollectionSpec struct {
	Name   string   `yaml:"name"`
	Events []string `yaml:"events"`
	// Schema is optional CUE source every new record must satisfy.
	Schema string `yaml:"schema,omitempty"`
}

// Registry holds the known feature families keyed by collection name.
type Registry struct {
	specs map[string]CollectionSpec
	order []string
}

// ParseRegistry decodes a registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Collections []CollectionSpec `yaml:"collections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse collection registry: %w", err)
	}
	r := &Registry{specs: make(map[string]CollectionSpec)}
	for _, spec := range doc.Collections {
		if spec.Name == "" {
			return nil, fmt.Errorf("parse collection registry: collection without name")
		}
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("parse collection registry: duplicate collection %q", spec.Name)
		}
		if len(spec.Events) == 0 {
			spec.Events = []string{DefaultEvent(spec.Name)}
		}
		r.specs[spec.Name] = spec
		r.order = append(r.order, spec.Name)
	}
	return r, nil
}

// DefaultRegistry returns the embedded feature families.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(collectionsYAML)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the spec for name. Unknown collections get a spec with the
// default event name and no schema.
func (r *Registry) Lookup(name string) (CollectionSpec, bool) {
	spec, ok := r.specs[name]
	if !ok {
		return CollectionSpec{Name: name, Events: []string{DefaultEvent(name)}}, false
	}
	return spec, true
}

// Names lists registered collections in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// DefaultEvent is the change event name for a collection without explicit events.
func DefaultEvent(collection string) string {
	return collection + "-changed"
}

// IsReserved reports whether a collection name is kept off the generic gateway.
func IsReserved(collection string) bool {
	return len(collection) > 0 && collection[0] == '_'
}

// ValidCollectionName reports whether name is usable as a collection or slot
// key: non-empty ASCII letters, digits, '_' and '-'.
func ValidCollectionName(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
