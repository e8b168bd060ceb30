// Package rules layers programmatic business checks on top of schema
// validation. A Rule inspects an already-validated value and reports
// BUSINESS_RULE_VIOLATION entries; conditionals gate rules on field values
// using dotted paths ("status", "ship.city").
package rules

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/access"
)

// Rule checks one business invariant against a value. Implementations return
// their violations as data; infrastructure failures belong in a custom Rule
// wrapping an error-returning call.
type Rule[T any] func(ctx context.Context, v T) []fieldcheck.ApiError

// Violation builds a business-rule error at path.
func Violation(path, message string) fieldcheck.ApiError {
	return fieldcheck.ApiError{
		Path:     path,
		Code:     fieldcheck.CodeBusinessRule,
		Message:  message,
		Location: fieldcheck.LocationBusiness,
	}
}

// Set runs rules in registration order and deduplicates their output.
type Set[T any] struct {
	rules []Rule[T]
}

// NewSet builds a rule set.
func NewSet[T any](rules ...Rule[T]) *Set[T] {
	return &Set[T]{rules: rules}
}

// Add appends rules to the set.
func (s *Set[T]) Add(rules ...Rule[T]) *Set[T] {
	s.rules = append(s.rules, rules...)
	return s
}

// Apply evaluates every rule against v. Context cancellation aborts between
// rules.
func (s *Set[T]) Apply(ctx context.Context, v T) ([]fieldcheck.ApiError, error) {
	var all []fieldcheck.ApiError
	for _, r := range s.rules {
		if r == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		all = append(all, r(ctx, v)...)
	}
	return fieldcheck.Dedup(all), nil
}

// Op is the comparison operator of a conditional.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional gates rules on one or more field comparisons.
type Conditional[T any] struct {
	path string
	op   Op
	want any
	all  []Conditional[T]
	any  []Conditional[T]
}

// If builds a conditional comparing the value at a dotted path.
func If[T any](path string, op Op, want any) Conditional[T] {
	return Conditional[T]{path: path, op: op, want: want}
}

// IfAll requires every condition to hold.
func IfAll[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{all: conds} }

// IfAny requires at least one condition to hold.
func IfAny[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{any: conds} }

// And combines the receiver with more conditions using logical AND.
func (c Conditional[T]) And(others ...Conditional[T]) Conditional[T] {
	return IfAll(append([]Conditional[T]{c}, others...)...)
}

// Or combines the receiver with more conditions using logical OR.
func (c Conditional[T]) Or(others ...Conditional[T]) Conditional[T] {
	return IfAny(append([]Conditional[T]{c}, others...)...)
}

// Then attaches the rules to run when the condition holds.
func (c Conditional[T]) Then(rules ...Rule[T]) Rule[T] {
	return func(ctx context.Context, v T) []fieldcheck.ApiError {
		if !c.holds(v) {
			return nil
		}
		var all []fieldcheck.ApiError
		for _, r := range rules {
			if r == nil {
				continue
			}
			all = append(all, r(ctx, v)...)
		}
		return all
	}
}

func (c Conditional[T]) holds(v T) bool {
	if len(c.all) > 0 {
		for _, sub := range c.all {
			if !sub.holds(v) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, sub := range c.any {
			if sub.holds(v) {
				return true
			}
		}
		return false
	}
	got, ok := valueAtPath(v, c.path)
	if !ok {
		return false
	}
	return compare(got, c.op, c.want)
}

// AtLeastOne requires the sequence at path to carry at least one element.
func AtLeastOne[T any](path string) Rule[T] {
	return func(ctx context.Context, v T) []fieldcheck.ApiError {
		val, ok := valueAtPath(v, path)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Len() == 0 {
				return []fieldcheck.ApiError{Violation(fieldcheck.AppendIndex(path, 0), "at least one item is required")}
			}
		}
		return nil
	}
}

// Require fails with message when the value at path is missing or empty.
func Require[T any](path, message string) Rule[T] {
	return func(ctx context.Context, v T) []fieldcheck.ApiError {
		val, ok := valueAtPath(v, path)
		if !ok || isEmptyValue(val) {
			return []fieldcheck.ApiError{Violation(path, message)}
		}
		return nil
	}
}

// UniqueBy requires elements of the sequence at path to carry distinct values
// for key. Mixed key types compare by their string forms.
func UniqueBy[T any](path, key string) Rule[T] {
	return func(ctx context.Context, v T) []fieldcheck.ApiError {
		val, ok := valueAtPath(v, path)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		seen := map[string]int{}
		var out []fieldcheck.ApiError
		for i := 0; i < rv.Len(); i++ {
			kv, ok := valueAtPath(rv.Index(i).Interface(), key)
			if !ok || kv == nil {
				continue
			}
			k := fmt.Sprint(kv)
			if _, dup := seen[k]; dup {
				out = append(out, Violation(
					fieldcheck.AppendPath(fieldcheck.AppendIndex(path, i), key),
					"duplicate value "+k,
				))
				continue
			}
			seen[k] = i
		}
		return out
	}
}

// valueAtPath resolves a dotted path against structs and string-keyed maps
// using the same key resolution as the schema compiler.
func valueAtPath(v any, path string) (any, bool) {
	cur := v
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		next, ok := segment(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func segment(v any, name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
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
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return indirect(mv), true
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

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// compare evaluates got <op> want. Ordered operators need values both sides
// can widen to float64; everything else falls back to string forms.
func compare(got any, op Op, want any) bool {
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	if gok && wok {
		switch op {
		case Eq:
			return gf == wf
		case Ne:
			return gf != wf
		case Lt:
			return gf < wf
		case Le:
			return gf <= wf
		case Gt:
			return gf > wf
		case Ge:
			return gf >= wf
		}
		return false
	}
	gs, ws := fmt.Sprint(got), fmt.Sprint(want)
	switch op {
	case Eq:
		return gs == ws
	case Ne:
		return gs != ws
	case Lt:
		return gs < ws
	case Le:
		return gs <= ws
	case Gt:
		return gs > ws
	case Ge:
		return gs >= ws
	}
	return false
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
