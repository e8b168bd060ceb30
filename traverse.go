package fieldcheck

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reoring/fieldcheck/access"
	"github.com/reoring/fieldcheck/classify"
	"github.com/reoring/fieldcheck/i18n"
)

// traversal owns the error accumulator for exactly one validation call. It
// is never shared across calls or goroutines; the schema it walks is shared
// read-only.
type traversal struct {
	strict bool
	errs   []ApiError
}

// fields validates every property of s against the container value v. A nil
// container yields nil field values without invoking accessors.
func (t *traversal) fields(ctx context.Context, v any, s *Schema, vc Context) error {
	for _, spec := range s.Fields() {
		raw, err := t.resolve(v, spec)
		if err != nil {
			return err
		}
		fvc := vc.field(spec.Name, spec.Desc, v)

		// Array emptiness is reported at index 0 via placeholder synthesis,
		// so presence runs against the array value only when it is absent.
		var bindings []ConstraintBinding
		switch {
		case !spec.Desc.Kind.IsArray():
			bindings = spec.Bindings()
		case raw == nil:
			bindings = spec.Presence
		}
		if err := t.value(ctx, raw, fvc, bindings); err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		switch {
		case spec.Desc.Kind.IsArray():
			if err := t.array(ctx, raw, spec, spec.Desc, fvc, spec.forceNonEmpty()); err != nil {
				return err
			}
		case spec.Desc.Kind == classify.Object && spec.Nested != nil:
			if err := t.fields(ctx, raw, spec.Nested, fvc); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve reads the field value through the accessor. In lenient mode a
// type-mismatched container reads as "no value"; strict mode turns it into a
// hard failure for diagnostics.
func (t *traversal) resolve(v any, spec *PropertySpec) (any, error) {
	if v == nil {
		return nil, nil
	}
	res := spec.Accessor.Get(v)
	switch res.Status {
	case access.TypeMismatch:
		if t.strict {
			return nil, fmt.Errorf("fieldcheck: %T is not assignable to %v for field %q",
				v, spec.Accessor.Container(), spec.Name)
		}
		return nil, nil
	case access.NullContainer:
		return nil, nil
	default:
		return res.Value, nil
	}
}

// array validates one array value: container constraints once against the
// whole sequence, then per element: recursing for nested arrays and
// objects, applying the field's constraints directly for scalars. When force
// is set and the sequence is empty, one placeholder element is synthesized
// so presence fires at index 0.
func (t *traversal) array(ctx context.Context, v any, spec *PropertySpec, d classify.TypeDescriptor, vc Context, force bool) error {
	seq := normalizeSeq(v)

	if len(seq) == 0 && force {
		ed := elemDescOf(d)
		ivc := vc.index(0, ed, seq)
		if len(spec.Presence) > 0 {
			return t.value(ctx, nil, ivc, spec.Presence)
		}
		t.errs = append(t.errs, ApiError{
			Path:     ivc.FieldPath,
			Code:     CodeRequired,
			Message:  i18n.T(ivc.Locale, CodeRequired, nil),
			Location: ivc.Location,
		})
		return nil
	}

	if len(spec.Containers) > 0 {
		if err := t.value(ctx, seq, vc, spec.Containers); err != nil {
			return err
		}
	}

	ed := elemDescOf(d)
	for i, el := range seq {
		ivc := vc.index(i, ed, seq)
		switch {
		case ed.Kind.IsArray():
			if err := t.array(ctx, el, spec, ed, ivc, false); err != nil {
				return err
			}
		case ed.Kind == classify.Object:
			if el == nil || spec.Nested == nil {
				continue
			}
			if err := t.fields(ctx, el, spec.Nested, ivc); err != nil {
				return err
			}
		case ed.Kind == classify.Map:
			if el == nil || spec.Nested == nil || len(spec.Nested.Fields()) == 0 {
				continue
			}
			if err := t.fields(ctx, el, spec.Nested, ivc); err != nil {
				return err
			}
		case ed.Kind == classify.Any && el != nil && spec.Nested != nil:
			// dynamically typed elements validated against an explicit
			// schema; the accessors decide per element whether it matches
			if err := t.fields(ctx, el, spec.Nested, ivc); err != nil {
				return err
			}
		default:
			// scalar elements get the field's ordered constraints directly
			bindings := append(append([]ConstraintBinding(nil), spec.Presence...), spec.Values...)
			if err := t.value(ctx, el, ivc, bindings); err != nil {
				return err
			}
		}
	}
	return nil
}

// value runs an ordered constraint list against one value. Group-scoped
// constraints run only when their groups intersect the active set. Under
// StopOnFirst the field stops at its first violation; otherwise every
// violation is appended. A validator's infrastructure error aborts the whole
// traversal.
func (t *traversal) value(ctx context.Context, v any, vc Context, bindings []ConstraintBinding) error {
	for _, b := range bindings {
		if !vc.groupsApply(b.Constraint.Groups()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ae, err := b.Validator.Check(ctx, v, b.Constraint, vc)
		if err != nil {
			return err
		}
		if ae == nil {
			continue
		}
		if ae.Path == "" {
			ae.Path = vc.FieldPath
		}
		if ae.Location == "" {
			ae.Location = vc.Location
		}
		t.errs = append(t.errs, *ae)
		if vc.StopOnFirst {
			return nil
		}
	}
	return nil
}

// normalizeSeq flattens any slice or array value into []any without copying
// when the source already is one. Nil elements stay in place so presence
// constraints fire at their true index.
func normalizeSeq(v any) []any {
	if v == nil {
		return nil
	}
	if va, ok := v.([]any); ok {
		return va
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = elemValue(rv.Index(i))
	}
	return out
}

// elemValue collapses typed nils so traversal sees plain nil.
func elemValue(rv reflect.Value) any {
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
