// Package classify normalizes arbitrary Go types into TypeDescriptor values
// used by the schema compiler and the traversal engine. Classification is a
// pure function of the type; results for named types are memoized.
package classify

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// TypeDescriptor is the recursive, normalized shape of a type.
type TypeDescriptor struct {
	// Root is the type as requested, before pointer dereferencing.
	Root reflect.Type
	// Concrete is the type after stripping pointers; the type accessors and
	// validators actually see.
	Concrete reflect.Type
	Kind     Kind
	// Elem holds exactly one element descriptor for array kinds and none for
	// every other kind.
	Elem []TypeDescriptor
}

// ElemDesc returns the element descriptor of an array kind.
func (d TypeDescriptor) ElemDesc() (TypeDescriptor, bool) {
	if len(d.Elem) != 1 {
		return TypeDescriptor{}, false
	}
	return d.Elem[0], true
}

// ElemKind returns the element kind of an array descriptor, or Any when d is
// not an array.
func (d TypeDescriptor) ElemKind() Kind {
	if e, ok := d.ElemDesc(); ok {
		return e.Kind
	}
	return Any
}

var (
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

	// overrides lets callers pin a Kind for types the heuristics cannot see
	// through (civil date/time types, custom decimals).
	overrides sync.Map // reflect.Type -> Kind

	cache sync.Map // reflect.Type -> TypeDescriptor
)

// RegisterKind pins the classification of t to k, taking priority over every
// built-in rule. Intended for civil Date/Time types and custom decimals.
func RegisterKind(t reflect.Type, k Kind) {
	if t == nil {
		return
	}
	overrides.Store(t, k)
	cache.Delete(t)
}

// Classify converts a type into its TypeDescriptor. Unrecognized shapes
// degrade to Any; classification never fails.
func Classify(t reflect.Type) TypeDescriptor {
	if t == nil {
		return TypeDescriptor{Kind: Any}
	}
	if d, ok := cache.Load(t); ok {
		return d.(TypeDescriptor)
	}
	d := classify(t, 0)
	cache.Store(t, d)
	return d
}

// Of classifies the dynamic type of v.
func Of(v any) TypeDescriptor {
	if v == nil {
		return TypeDescriptor{Kind: Any}
	}
	return Classify(reflect.TypeOf(v))
}

const maxClassifyDepth = 32

func classify(t reflect.Type, depth int) TypeDescriptor {
	if depth > maxClassifyDepth {
		return TypeDescriptor{Root: t, Concrete: t, Kind: Any}
	}
	d := TypeDescriptor{Root: t, Concrete: t}

	// Pointers are transparent: *int classifies like int. This is the Go
	// equivalent of primitive/boxed equivalence.
	for d.Concrete.Kind() == reflect.Pointer {
		d.Concrete = d.Concrete.Elem()
	}
	ct := d.Concrete

	if k, ok := overrides.Load(ct); ok {
		d.Kind = k.(Kind)
		return d
	}

	switch ct {
	case reflect.TypeOf(time.Time{}):
		d.Kind = DateTime
		return d
	case reflect.TypeOf(big.Float{}), reflect.TypeOf(big.Rat{}), reflect.TypeOf(big.Int{}):
		d.Kind = Decimal
		return d
	case reflect.TypeOf(json.Number("")):
		// json.Number implements Stringer over a string base; without this it
		// would classify as an enum.
		d.Kind = Decimal
		return d
	}

	switch ct.Kind() {
	case reflect.Bool:
		d.Kind = Bool
	case reflect.Uint8:
		d.Kind = Byte
	case reflect.String:
		if isEnum(ct) {
			d.Kind = Enum
		} else {
			d.Kind = String
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isEnum(ct) {
			d.Kind = Enum
		} else {
			d.Kind = Numeric
		}
	case reflect.Map:
		d.Kind = Map
	case reflect.Slice, reflect.Array:
		elem := classify(ct.Elem(), depth+1)
		d.Kind = ArrayOf(elem.Kind)
		d.Elem = []TypeDescriptor{elem}
	case reflect.Struct:
		if hasInstanceField(ct) {
			d.Kind = Object
		} else {
			d.Kind = Any
		}
	default:
		// Interfaces, channels, funcs, unsafe pointers: conservative fallback.
		d.Kind = Any
	}
	return d
}

// isEnum reports whether a named scalar type looks like an enumeration: a
// non-builtin type with an integer or string base that names its values via
// fmt.Stringer.
func isEnum(t reflect.Type) bool {
	if t.PkgPath() == "" {
		return false
	}
	return t.Implements(stringerType) || reflect.PointerTo(t).Implements(stringerType)
}

// hasInstanceField reports whether a struct (or one of its embedded structs)
// declares at least one exported, non-disabled field. A struct without any
// such field carries nothing to validate and classifies as Any.
func hasInstanceField(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if hasInstanceField(sf.Type) {
				return true
			}
			continue
		}
		if sf.Tag.Get("check") == "-" {
			continue
		}
		return true
	}
	return false
}
