package constraints

import (
	"fmt"
	"reflect"

	"github.com/reoring/fieldcheck/access"
)

// lookupField reads a named field from a struct or map value using the same
// key resolution as the schema compiler. Sibling-aware constraints (eqfield,
// distinct) use it against the enclosing object or array elements.
func lookupField(container any, name string) (any, bool) {
	if container == nil {
		return nil, false
	}
	rv := reflect.ValueOf(container)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			if !sf.IsExported() {
				continue
			}
			key := access.ResolveKey(sf)
			if key == "-" {
				continue
			}
			if key == name || sf.Name == name {
				return indirect(rv.Field(i)), true
			}
		}
		return nil, false
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !mv.IsValid() {
				return nil, false
			}
			return indirect(mv), true
		}
		iter := rv.MapRange()
		for iter.Next() {
			if fmt.Sprint(iter.Key().Interface()) == name {
				return indirect(iter.Value()), true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func indirect(rv reflect.Value) any {
	if rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	return rv.Interface()
}
