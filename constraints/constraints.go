// Package constraints ships the built-in constraint set and its validators:
// presence, numeric bounds, length, pattern, enumeration, sibling equality,
// and container distinctness, plus format rules (phone, uuid, email).
// DefaultRegistry returns a registry with everything bound; custom
// constraint types register the same way on top of it.
package constraints

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/classify"
	"github.com/reoring/fieldcheck/i18n"
)

// violation builds an ApiError for the current context; the traversal
// stamps path and location.
func violation(vc fieldcheck.Context, code string, params map[string]any) *fieldcheck.ApiError {
	return &fieldcheck.ApiError{
		Code:    code,
		Message: i18n.T(vc.Locale, code, params),
		Data:    params,
	}
}

// ---- required ----

// Required is the presence constraint: nil values, empty strings, and empty
// sequences violate it.
type Required struct {
	fieldcheck.ConstraintBase
}

func (*Required) Code() string { return fieldcheck.CodeRequired }

// Presence marks Required as a presence constraint so it sorts first and
// forces placeholder synthesis for empty required arrays.
func (*Required) Presence() {}

func parseRequired(param string) (fieldcheck.Constraint, error) {
	if param != "" {
		return nil, fmt.Errorf("required takes no parameter")
	}
	return &Required{}, nil
}

var requiredValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	if isEmpty(v) {
		return violation(vc, fieldcheck.CodeRequired, nil), nil
	}
	return nil, nil
})

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ---- min / max ----

// Min requires a numeric value of at least N.
type Min struct {
	fieldcheck.ConstraintBase
	N float64
}

func (*Min) Code() string { return fieldcheck.CodeMin }

// Max requires a numeric value of at most N.
type Max struct {
	fieldcheck.ConstraintBase
	N float64
}

func (*Max) Code() string { return fieldcheck.CodeMax }

func parseMin(param string) (fieldcheck.Constraint, error) {
	n, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return nil, fmt.Errorf("min wants a number: %w", err)
	}
	return &Min{N: n}, nil
}

func parseMax(param string) (fieldcheck.Constraint, error) {
	n, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return nil, fmt.Errorf("max wants a number: %w", err)
	}
	return &Max{N: n}, nil
}

var minValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	m := c.(*Min)
	f, ok := toFloat(v)
	if !ok {
		return nil, nil
	}
	if f < m.N {
		return violation(vc, fieldcheck.CodeMin, map[string]any{"min": m.N, "got": f}), nil
	}
	return nil, nil
})

var maxValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	m := c.(*Max)
	f, ok := toFloat(v)
	if !ok {
		return nil, nil
	}
	if f > m.N {
		return violation(vc, fieldcheck.CodeMax, map[string]any{"max": m.N, "got": f}), nil
	}
	return nil, nil
})

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
	case reflect.String:
		// json.Number and friends
		if f, err := strconv.ParseFloat(rv.String(), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// ---- length ----

// Length bounds the length of a string (in runes), slice, or map.
// Declaration: len=2:10, len=2: (min only), len=:10 (max only).
type Length struct {
	fieldcheck.ConstraintBase
	Min int
	Max int // -1 means unbounded
}

func (*Length) Code() string { return fieldcheck.CodeLength }

func parseLength(param string) (fieldcheck.Constraint, error) {
	l := &Length{Max: -1}
	lo, hi, found := strings.Cut(param, ":")
	if lo != "" {
		n, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("len wants integers: %w", err)
		}
		l.Min = n
	}
	if found && hi != "" {
		n, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("len wants integers: %w", err)
		}
		l.Max = n
	}
	if !found && lo != "" {
		// single number means exact length
		l.Max = l.Min
	}
	return l, nil
}

var lengthValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	l := c.(*Length)
	n, ok := lengthOf(v)
	if !ok {
		return nil, nil
	}
	if n < l.Min || (l.Max >= 0 && n > l.Max) {
		return violation(vc, fieldcheck.CodeLength, map[string]any{"min": l.Min, "max": l.Max, "got": n}), nil
	}
	return nil, nil
})

func lengthOf(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// ---- pattern ----

// Pattern requires a string to match a compiled regular expression.
type Pattern struct {
	fieldcheck.ConstraintBase
	Expr string
	re   *regexp.Regexp
}

func (*Pattern) Code() string { return fieldcheck.CodePattern }

func parsePattern(param string) (fieldcheck.Constraint, error) {
	re, err := regexp.Compile(param)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	return &Pattern{Expr: param, re: re}, nil
}

var patternValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	p := c.(*Pattern)
	s, ok := toString(v)
	if !ok {
		return nil, nil
	}
	if !p.re.MatchString(s) {
		return violation(vc, fieldcheck.CodePattern, map[string]any{"pattern": p.Expr}), nil
	}
	return nil, nil
})

func toString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// ---- oneof ----

// OneOf restricts a scalar to an enumerated set of string forms.
// Declaration: oneof=a|b|c.
type OneOf struct {
	fieldcheck.ConstraintBase
	Values []string
}

func (*OneOf) Code() string { return fieldcheck.CodeEnum }

func parseOneOf(param string) (fieldcheck.Constraint, error) {
	if param == "" {
		return nil, fmt.Errorf("oneof wants at least one value")
	}
	return &OneOf{Values: strings.Split(param, "|")}, nil
}

var oneOfValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	o := c.(*OneOf)
	if v == nil {
		return nil, nil
	}
	got := fmt.Sprint(v)
	for _, w := range o.Values {
		if got == w {
			return nil, nil
		}
	}
	return violation(vc, fieldcheck.CodeEnum, map[string]any{"allowed": o.Values, "got": got}), nil
})

// ---- eqfield ----

// EqField requires the value to equal a sibling field of the enclosing
// object. Declaration: eqfield=other.
type EqField struct {
	fieldcheck.ConstraintBase
	Field string
}

func (*EqField) Code() string { return fieldcheck.CodeEquality }

func parseEqField(param string) (fieldcheck.Constraint, error) {
	if param == "" {
		return nil, fmt.Errorf("eqfield wants a field name")
	}
	return &EqField{Field: param}, nil
}

var eqFieldValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	eq := c.(*EqField)
	if vc.ObjectRef == nil {
		return nil, nil
	}
	sibling, ok := lookupField(vc.ObjectRef, eq.Field)
	if !ok {
		return nil, nil
	}
	if !looseEqual(v, sibling) {
		return violation(vc, fieldcheck.CodeEquality, map[string]any{"field": eq.Field}), nil
	}
	return nil, nil
})

func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		return fa == fb
	}
	return false
}

// ---- distinct ----

// DistinctBy requires all elements of an array to carry distinct values for
// one of their fields. Declaration: distinct=name. It applies to the
// container as a whole and runs once per sequence.
type DistinctBy struct {
	fieldcheck.ConstraintBase
	Field string
}

func (*DistinctBy) Code() string { return fieldcheck.CodeDistinct }

// TargetField names the element property the constraint inspects; the
// compiler verifies it exists in the element schema.
func (d *DistinctBy) TargetField() string { return d.Field }

func parseDistinct(param string) (fieldcheck.Constraint, error) {
	if param == "" {
		return nil, fmt.Errorf("distinct wants a field name")
	}
	return &DistinctBy{Field: param}, nil
}

var distinctValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	d := c.(*DistinctBy)
	seq, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	seen := map[string]int{}
	for i, el := range seq {
		if el == nil {
			continue
		}
		kv, ok := lookupField(el, d.Field)
		if !ok || kv == nil {
			continue
		}
		key := fmt.Sprint(kv)
		if first, dup := seen[key]; dup {
			// one error per container, not one per duplicate pair
			return violation(vc, fieldcheck.CodeDistinct, map[string]any{
				"field": d.Field, "value": key, "first": first, "dup": i,
			}), nil
		}
		seen[key] = i
	}
	return nil, nil
})

// DefaultRegistry returns a registry with the full built-in constraint set
// bound to its validators.
func DefaultRegistry() *fieldcheck.Registry {
	reg := fieldcheck.NewRegistry()

	reg.RegisterConstraint("required", parseRequired)
	reg.Bind(&Required{}, requiredValidator, fieldcheck.Exact(classify.Any))

	reg.RegisterConstraint("min", parseMin)
	reg.Bind(&Min{}, minValidator, fieldcheck.Exact(classify.Numeric))
	reg.RegisterConstraint("max", parseMax)
	reg.Bind(&Max{}, maxValidator, fieldcheck.Exact(classify.Numeric))

	reg.RegisterConstraint("len", parseLength)
	reg.Bind(&Length{}, lengthValidator,
		fieldcheck.Exact(classify.String),
		fieldcheck.Exact(classify.Map),
		fieldcheck.ArrayMatch(classify.Any))

	reg.RegisterConstraint("pattern", parsePattern)
	reg.Bind(&Pattern{}, patternValidator,
		fieldcheck.Exact(classify.String),
		fieldcheck.Exact(classify.Enum))

	reg.RegisterConstraint("oneof", parseOneOf)
	reg.Bind(&OneOf{}, oneOfValidator,
		fieldcheck.Exact(classify.String),
		fieldcheck.Exact(classify.Enum),
		fieldcheck.Exact(classify.Numeric))

	reg.RegisterConstraint("eqfield", parseEqField)
	reg.Bind(&EqField{}, eqFieldValidator, fieldcheck.Exact(classify.Any))

	reg.RegisterConstraint("distinct", parseDistinct)
	reg.Bind(&DistinctBy{}, distinctValidator, fieldcheck.ArrayMatch(classify.Any))

	registerFormats(reg)
	return reg
}
