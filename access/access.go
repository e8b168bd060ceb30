// Package access compiles cached value extractors for (container type, field
// name) pairs. An Accessor is bound to the container type the schema
// requested, and its runtime entry point reports a tagged result instead of
// guessing: Ok, NullContainer, or TypeMismatch.
package access

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Status tags the outcome of an accessor invocation.
type Status int

const (
	// Ok means the value was read; it may still be nil (missing map key,
	// nil field).
	Ok Status = iota
	// NullContainer means the container instance was nil; no read happened.
	NullContainer
	// TypeMismatch means the instance is not assignable to the bound
	// container type.
	TypeMismatch
)

// Result is the tagged outcome of Accessor.Get.
type Result struct {
	Status Status
	Value  any
}

// Accessor extracts one field's value from instances of a bound container
// type. Accessors are immutable after compilation and safe for concurrent
// use.
type Accessor struct {
	container reflect.Type
	field     string
	index     []int // struct field index path; nil for map containers
	isMap     bool
	stringKey bool
	keyType   reflect.Type
}

// Container returns the bound container type.
func (a *Accessor) Container() reflect.Type { return a.container }

// Field returns the resolved field name the accessor reads.
func (a *Accessor) Field() string { return a.field }

// Get reads the field value from instance. A nil instance yields
// NullContainer; an instance of the wrong type yields TypeMismatch. Missing
// map keys and nil field values yield Ok with a nil value.
func (a *Accessor) Get(instance any) Result {
	if instance == nil {
		return Result{Status: NullContainer}
	}
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Result{Status: NullContainer}
		}
		rv = rv.Elem()
	}
	if rv.Type() != a.container && !rv.Type().AssignableTo(a.container) {
		return Result{Status: TypeMismatch}
	}
	if a.isMap {
		return a.getMap(rv)
	}
	return a.getStruct(rv)
}

// MustGet is the strict-mode entry point: a TypeMismatch becomes a hard
// error instead of a silent "no value".
func (a *Accessor) MustGet(instance any) (any, error) {
	res := a.Get(instance)
	if res.Status == TypeMismatch {
		return nil, fmt.Errorf("access: %v is not assignable to %v", reflect.TypeOf(instance), a.container)
	}
	return res.Value, nil
}

func (a *Accessor) getStruct(rv reflect.Value) Result {
	for n, i := range a.index {
		if n > 0 {
			// embedded hop: deref intermediate pointers, bailing on nil
			for rv.Kind() == reflect.Pointer {
				if rv.IsNil() {
					return Result{Status: Ok, Value: nil}
				}
				rv = rv.Elem()
			}
		}
		rv = rv.Field(i)
	}
	return Result{Status: Ok, Value: normalize(rv)}
}

func (a *Accessor) getMap(rv reflect.Value) Result {
	if rv.IsNil() {
		return Result{Status: NullContainer}
	}
	if a.stringKey {
		kv := reflect.ValueOf(a.field)
		if a.keyType != kv.Type() {
			kv = kv.Convert(a.keyType)
		}
		mv := rv.MapIndex(kv)
		if !mv.IsValid() {
			return Result{Status: Ok, Value: nil}
		}
		return Result{Status: Ok, Value: normalize(mv)}
	}
	// Non-string keys: documented O(n) fallback comparing string forms.
	iter := rv.MapRange()
	for iter.Next() {
		if fmt.Sprint(iter.Key().Interface()) == a.field {
			return Result{Status: Ok, Value: normalize(iter.Value())}
		}
	}
	return Result{Status: Ok, Value: nil}
}

// normalize unwraps interface values and collapses typed nils so callers see
// plain nil for absent values.
func normalize(rv reflect.Value) any {
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

// ResolveKey resolves the external name of a struct field.
// Priority: check:"name=..." > json tag name > Go field name; "-" disables.
func ResolveKey(sf reflect.StructField) string {
	if ct := sf.Tag.Get("check"); ct != "" {
		for _, p := range strings.Split(ct, ",") {
			p = strings.TrimSpace(p)
			if p == "-" {
				return "-"
			}
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

// Compile builds an accessor for the given container type and field name
// without caching. Most callers should use a Cache.
func Compile(container reflect.Type, field string) (*Accessor, error) {
	if container == nil {
		return nil, fmt.Errorf("access: nil container type")
	}
	ct := container
	for ct.Kind() == reflect.Pointer {
		ct = ct.Elem()
	}
	switch ct.Kind() {
	case reflect.Map:
		kt := ct.Key()
		return &Accessor{
			container: ct,
			field:     field,
			isMap:     true,
			stringKey: kt.Kind() == reflect.String,
			keyType:   kt,
		}, nil
	case reflect.Struct:
		idx, ok := findField(ct, field, 0)
		if !ok {
			return nil, fmt.Errorf("access: field %q not found on %v", field, ct)
		}
		return &Accessor{container: ct, field: field, index: idx}, nil
	default:
		return nil, fmt.Errorf("access: %v is neither a struct nor a map", ct)
	}
}

const maxEmbedDepth = 8

// findField locates field by resolved key or Go name, descending into
// embedded structs for promoted fields.
func findField(t reflect.Type, field string, depth int) ([]int, bool) {
	if depth > maxEmbedDepth {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := ResolveKey(sf)
		if key == "-" {
			continue
		}
		if key == field || sf.Name == field {
			return []int{i}, true
		}
	}
	// second pass: promoted fields of embedded structs
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous || !sf.IsExported() {
			continue
		}
		et := sf.Type
		for et.Kind() == reflect.Pointer {
			et = et.Elem()
		}
		if et.Kind() != reflect.Struct {
			continue
		}
		if rest, ok := findField(et, field, depth+1); ok {
			return append([]int{i}, rest...), true
		}
	}
	return nil, false
}

// Cache memoizes accessors per (container type, field name) with a
// single-computation guarantee under concurrent access.
type Cache struct {
	mu sync.Mutex
	m  map[cacheKey]*Accessor
}

type cacheKey struct {
	typ   reflect.Type
	field string
}

// NewCache returns an empty accessor cache.
func NewCache() *Cache {
	return &Cache{m: make(map[cacheKey]*Accessor)}
}

// Get returns the cached accessor for (container, field), compiling it on
// first use. Concurrent first access compiles exactly once.
func (c *Cache) Get(container reflect.Type, field string) (*Accessor, error) {
	ct := container
	for ct != nil && ct.Kind() == reflect.Pointer {
		ct = ct.Elem()
	}
	key := cacheKey{typ: ct, field: field}
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.m[key]; ok {
		return a, nil
	}
	a, err := Compile(ct, field)
	if err != nil {
		return nil, err
	}
	c.m[key] = a
	return a, nil
}
