package document

import (
	"fmt"
	"strings"

	"github.com/vk/paramdoc/internal/object"
)

// Setup declares an object type's properties on a freshly created object.
type Setup func(obj *object.Object) error

// Type describes one registered object type: its qualified name (e.g.
// "Part::Box"), the property setup, and the execute contract shared by all
// instances.
type Type struct {
	Name  string
	Setup Setup
	Exec  object.Executor
}

// Registry maps type names to their factories. Feature packages populate it
// at startup; documents consult it in Create and on snapshot load.
type Registry struct {
	types map[string]Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// Register adds a type. Re-registering a name is a programmer error.
func (r *Registry) Register(t Type) error {
	if t.Name == "" {
		return fmt.Errorf("registry: type name must not be empty")
	}
	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("registry: type %q already registered", t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// baseName derives the object-ID prefix from a qualified type name:
// "Part::Box" → "Box".
func baseName(typeName string) string {
	if i := strings.LastIndex(typeName, "::"); i >= 0 {
		return typeName[i+2:]
	}
	return typeName
}
