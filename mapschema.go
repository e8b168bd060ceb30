package fieldcheck

import (
	"reflect"

	"github.com/reoring/fieldcheck/classify"
)

// MapSchemaBuilder declares a schema for string-keyed sections (query,
// header, and path maps) where no struct type exists to derive one from.
// Declarations use the same grammar as the check struct tag.
type MapSchemaBuilder struct {
	comp   *Compiler
	fields []mapField
}

type mapField struct {
	name   string
	decl   string
	sample any
}

// MapSchema starts a map-section schema builder backed by the engine's
// registry and accessor cache.
func (e *Engine) MapSchema() *MapSchemaBuilder {
	return &MapSchemaBuilder{comp: e.comp}
}

// Field declares an untyped field. Only shape-agnostic constraints
// (required and other Any-accepting rules) can bind to it.
func (b *MapSchemaBuilder) Field(name, decl string) *MapSchemaBuilder {
	b.fields = append(b.fields, mapField{name: name, decl: decl})
	return b
}

// TypedField declares a field whose values have the type of sample, letting
// typed constraints (min, pattern, ...) bind.
func (b *MapSchemaBuilder) TypedField(name string, sample any, decl string) *MapSchemaBuilder {
	b.fields = append(b.fields, mapField{name: name, decl: decl, sample: sample})
	return b
}

// Compile builds the schema against the map type of containerSample
// (e.g. map[string]string{} for query parameters). Compilation failures are
// fatal, matching struct schema compilation.
func (b *MapSchemaBuilder) Compile(containerSample any) (*Schema, error) {
	if containerSample == nil {
		return nil, &CompileError{Reason: "nil map container sample"}
	}
	ct := reflect.TypeOf(containerSample)
	for ct.Kind() == reflect.Pointer {
		ct = ct.Elem()
	}
	if ct.Kind() != reflect.Map {
		return nil, &CompileError{Type: ct, Reason: "map schema container must be a map"}
	}
	d := classify.Classify(ct)
	s := &Schema{root: d, byName: make(map[string]*PropertySpec, len(b.fields))}
	for _, f := range b.fields {
		spec := &PropertySpec{Name: f.name, Desc: classify.TypeDescriptor{Kind: classify.Any}}
		if f.sample != nil {
			spec.Desc = classify.Of(f.sample)
			if e, ok := spec.Desc.ElemDesc(); ok {
				spec.ElemDesc = e
			}
		}
		acc, err := b.comp.accessors.Get(ct, f.name)
		if err != nil {
			return nil, &CompileError{Type: ct, Field: f.name, Reason: "accessor", Cause: err}
		}
		spec.Accessor = acc

		decls, err := b.comp.reg.Parse(f.decl)
		if err != nil {
			return nil, &CompileError{Type: ct, Field: f.name, Reason: "declaration", Cause: err}
		}
		if err := b.comp.bindConstraints(spec, decls, ct, f.name); err != nil {
			return nil, err
		}
		if err := b.comp.compileNested(spec, map[reflect.Type]bool{}); err != nil {
			return nil, err
		}
		s.fields = append(s.fields, spec)
		s.byName[f.name] = spec
	}
	if !s.hasConstraints(map[*Schema]bool{}) {
		return nil, &CompileError{Type: ct, Reason: "schema has no usable constraints"}
	}
	return s, nil
}
