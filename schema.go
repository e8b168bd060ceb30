package fieldcheck

import (
	"reflect"

	"github.com/reoring/fieldcheck/access"
	"github.com/reoring/fieldcheck/classify"
)

// ConstraintBinding is one compiled (constraint metadata, validator) pair.
// The validator was resolved at compile time and is guaranteed compatible
// with the field's shape.
type ConstraintBinding struct {
	Constraint Constraint
	Validator  Validator
}

// PropertySpec is the compiled metadata for one field: its resolved name,
// type descriptor, accessor, optional nested schema, and ordered constraint
// bindings (presence first).
type PropertySpec struct {
	// DeclaredName is the Go field name (empty for map-schema fields).
	DeclaredName string
	// Name is the resolved external name used in paths.
	Name string
	Desc classify.TypeDescriptor
	// ElemDesc is the element descriptor for array fields.
	ElemDesc classify.TypeDescriptor
	Accessor *access.Accessor
	// Nested is the element schema for object fields and arrays of
	// objects/maps; nil for leaves and cycle cut-points.
	Nested *Schema

	// Presence holds presence constraints, run against the field value
	// itself before anything else.
	Presence []ConstraintBinding
	// Values holds value constraints: run against the field value for
	// scalars and objects, per element for arrays.
	Values []ConstraintBinding
	// Containers holds container-applicable constraints, run once against
	// the whole normalized sequence of an array field.
	Containers []ConstraintBinding
}

// Bindings returns the field's constraints in evaluation order, presence
// first.
func (p *PropertySpec) Bindings() []ConstraintBinding {
	out := make([]ConstraintBinding, 0, len(p.Presence)+len(p.Values)+len(p.Containers))
	out = append(out, p.Presence...)
	out = append(out, p.Values...)
	out = append(out, p.Containers...)
	return out
}

// forceNonEmpty reports whether an empty array under this field must
// synthesize a placeholder element so presence fires at index 0.
func (p *PropertySpec) forceNonEmpty() bool { return len(p.Presence) > 0 }

// Schema is the compiled, immutable map of field name to
// PropertySpec for one type. Once built it is cached per concrete root type
// and shared read-only by all concurrent traversals.
type Schema struct {
	root   classify.TypeDescriptor
	fields []*PropertySpec
	byName map[string]*PropertySpec
}

// Root returns the descriptor of the compiled type.
func (s *Schema) Root() classify.TypeDescriptor { return s.root }

// RootType returns the concrete compiled type; nil for map schemas.
func (s *Schema) RootType() reflect.Type { return s.root.Concrete }

// Fields returns the property specs in declaration order.
func (s *Schema) Fields() []*PropertySpec { return s.fields }

// Field returns the spec for a resolved field name.
func (s *Schema) Field(name string) (*PropertySpec, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// hasConstraints reports whether any property in the tree carries at least
// one constraint. A schema without any usable constraint is a compile-time
// fatal error.
func (s *Schema) hasConstraints(seen map[*Schema]bool) bool {
	if seen[s] {
		return false
	}
	seen[s] = true
	for _, f := range s.fields {
		if len(f.Presence)+len(f.Values)+len(f.Containers) > 0 {
			return true
		}
		if f.Nested != nil && f.Nested.hasConstraints(seen) {
			return true
		}
	}
	return false
}
