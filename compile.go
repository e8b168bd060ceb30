package fieldcheck

import (
	"reflect"

	"github.com/reoring/fieldcheck/access"
	"github.com/reoring/fieldcheck/classify"
)

// Compiler builds Schemas from struct types. It resolves every declared
// constraint to a compatible validator up front so traversal never has to
// guess; any unresolvable pair aborts compilation with a CompileError.
type Compiler struct {
	reg       *Registry
	accessors *access.Cache
}

// NewCompiler returns a compiler using the given registry and a fresh
// accessor cache.
func NewCompiler(reg *Registry) *Compiler {
	return &Compiler{reg: reg, accessors: access.NewCache()}
}

// Compile compiles a root struct type into a Schema. The result is
// immutable; callers (normally the Engine) are responsible for memoization.
func (c *Compiler) Compile(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, &CompileError{Reason: "nil root type"}
	}
	d := classify.Classify(t)
	if d.Kind != classify.Object && d.Kind != classify.Map {
		return nil, &CompileError{Type: t, Reason: "root type must classify as object or map, got " + d.Kind.String()}
	}
	s, err := c.compile(d, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	if !s.hasConstraints(map[*Schema]bool{}) {
		return nil, &CompileError{Type: t, Reason: "schema has no usable constraints"}
	}
	return s, nil
}

// compile builds the schema for one object type. visited tracks the current
// ancestry path only: a type seen again on its own branch becomes a leaf,
// while the same type reused in unrelated positions still compiles fully.
func (c *Compiler) compile(d classify.TypeDescriptor, visited map[reflect.Type]bool) (*Schema, error) {
	ct := d.Concrete
	if ct.Kind() != reflect.Struct {
		// Map element schemas have no static fields; traversal applies the
		// forwarded constraints directly.
		return &Schema{root: d, byName: map[string]*PropertySpec{}}, nil
	}
	visited[ct] = true
	defer delete(visited, ct)

	s := &Schema{root: d, byName: make(map[string]*PropertySpec)}
	if err := c.compileFields(ct, ct, s, visited); err != nil {
		return nil, err
	}
	return s, nil
}

// compileFields enumerates the fields of ct but binds accessors against
// bind, the outermost container type. The two differ only while flattening
// an embedded struct: promoted fields must read through the outer instance,
// and the accessor's index path walks the embedded hop.
func (c *Compiler) compileFields(ct, bind reflect.Type, s *Schema, visited map[reflect.Type]bool) error {
	for i := 0; i < ct.NumField(); i++ {
		sf := ct.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := access.ResolveKey(sf)
		if name == "-" {
			continue
		}
		if sf.Anonymous && classify.Classify(sf.Type).Kind == classify.Object && sf.Tag.Get("check") == "" {
			// promoted fields of an untagged embedded struct flatten into
			// this schema
			et := sf.Type
			for et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if !visited[et] {
				visited[et] = true
				err := c.compileFields(et, bind, s, visited)
				delete(visited, et)
				if err != nil {
					return err
				}
			}
			continue
		}
		spec, err := c.compileField(bind, sf, name, visited)
		if err != nil {
			return err
		}
		s.fields = append(s.fields, spec)
		s.byName[name] = spec
	}
	return nil
}

func (c *Compiler) compileField(ct reflect.Type, sf reflect.StructField, name string, visited map[reflect.Type]bool) (*PropertySpec, error) {
	d := classify.Classify(sf.Type)
	spec := &PropertySpec{DeclaredName: sf.Name, Name: name, Desc: d}
	if e, ok := d.ElemDesc(); ok {
		spec.ElemDesc = e
	}

	acc, err := c.accessors.Get(ct, name)
	if err != nil {
		return nil, &CompileError{Type: ct, Field: name, Reason: "accessor", Cause: err}
	}
	spec.Accessor = acc

	decls, err := c.reg.Parse(sf.Tag.Get("check"))
	if err != nil {
		return nil, &CompileError{Type: ct, Field: name, Reason: "tag", Cause: err}
	}
	if err := c.bindConstraints(spec, decls, ct, name); err != nil {
		return nil, err
	}
	if err := c.compileNested(spec, visited); err != nil {
		return nil, err
	}
	if err := c.checkForwarded(spec, ct, name); err != nil {
		return nil, err
	}
	return spec, nil
}

// bindConstraints resolves every declared constraint to its most specific
// compatible validator. Presence constraints sort first; the rest keep
// declaration order. For array fields, value constraints resolve against the
// innermost element descriptor because they run per element; a constraint
// with no element-compatible validator falls back to the sequence itself.
func (c *Compiler) bindConstraints(spec *PropertySpec, decls []Constraint, ct reflect.Type, name string) error {
	for _, decl := range decls {
		target := spec.Desc
		kind := bindingKindOf(decl)
		if kind == bindValue && spec.Desc.Kind.IsArray() {
			target = elemDescOf(spec.Desc)
			for target.Kind.IsArray() {
				target = elemDescOf(target)
			}
			if _, ok := c.reg.Resolve(decl, target); !ok {
				// not meaningful per element; try the sequence as a whole
				// (e.g. len bounding the size of an array of objects)
				target = spec.Desc
				kind = bindContainer
			}
		}
		v, ok := c.reg.Resolve(decl, target)
		if !ok {
			return &CompileError{Type: ct, Field: name,
				Reason: "no compatible validator for " + reflect.TypeOf(decl).String() + " on " + target.Kind.String()}
		}
		b := ConstraintBinding{Constraint: decl, Validator: v}
		switch kind {
		case bindPresence:
			spec.Presence = append(spec.Presence, b)
		case bindContainer:
			spec.Containers = append(spec.Containers, b)
		default:
			spec.Values = append(spec.Values, b)
		}
	}
	return nil
}

type bindingKind int

const (
	bindValue bindingKind = iota
	bindPresence
	bindContainer
)

func bindingKindOf(c Constraint) bindingKind {
	if _, ok := c.(PresenceConstraint); ok {
		return bindPresence
	}
	if _, ok := c.(ContainerConstraint); ok {
		return bindContainer
	}
	return bindValue
}

// compileNested recurses into plain object fields and into the element type
// of arrays of objects, arrays of maps, and nested arrays.
func (c *Compiler) compileNested(spec *PropertySpec, visited map[reflect.Type]bool) error {
	d := spec.Desc
	var elem classify.TypeDescriptor
	switch d.Kind {
	case classify.Object:
		if visited[d.Concrete] {
			return nil // cycle: treat as leaf
		}
		nested, err := c.compile(d, visited)
		if err != nil {
			return err
		}
		spec.Nested = nested
		return nil
	case classify.ArrayOfObject, classify.ArrayOfMap, classify.ArrayOfArray:
		// descend to the innermost element type; nested arrays share the one
		// element schema
		elem = elemDescOf(d)
		for elem.Kind.IsArray() {
			elem = elemDescOf(elem)
		}
	default:
		return nil
	}
	if elem.Kind == classify.Object && visited[elem.Concrete] {
		return nil
	}
	if elem.Kind == classify.Object || elem.Kind == classify.Map {
		nested, err := c.compile(elem, visited)
		if err != nil {
			return err
		}
		spec.Nested = nested
	}
	return nil
}

// checkForwarded verifies container constraints that target a nested field
// actually have one to attach to. The constraint stays bound to the array
// spec and runs once per sequence; the check keeps a typo from silently
// validating nothing.
func (c *Compiler) checkForwarded(spec *PropertySpec, ct reflect.Type, name string) error {
	for _, b := range spec.Containers {
		cc, ok := b.Constraint.(ContainerConstraint)
		if !ok {
			// value constraint rebound to the sequence as a whole
			continue
		}
		target := cc.TargetField()
		if target == "" {
			continue
		}
		if !spec.Desc.Kind.IsArray() {
			return &CompileError{Type: ct, Field: name, Reason: "container constraint on non-array field"}
		}
		if spec.Nested != nil {
			if _, ok := spec.Nested.Field(target); !ok && spec.Nested.RootType() != nil && spec.Nested.RootType().Kind() == reflect.Struct {
				return &CompileError{Type: ct, Field: name,
					Reason: "container constraint targets unknown element field " + target}
			}
		}
	}
	return nil
}
