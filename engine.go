package fieldcheck

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/reoring/fieldcheck/classify"
	"github.com/reoring/fieldcheck/i18n"
)

// Engine owns the schema and accessor caches and exposes the validation
// entry points. Construct one per validator registry and share it freely;
// all methods are safe for concurrent use.
type Engine struct {
	reg     *Registry
	comp    *Compiler
	schemas sync.Map // reflect.Type -> *Schema
	group   singleflight.Group
	log     *logrus.Logger
	strict  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger makes the engine emit debug-level schema compilation traces.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStrictAccess turns accessor type mismatches into hard failures
// instead of "no value". Useful while diagnosing schema/type drift.
func WithStrictAccess() Option {
	return func(e *Engine) { e.strict = true }
}

// New builds an engine around a validator registry.
func New(reg *Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, comp: NewCompiler(reg)}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *Registry { return e.reg }

// callOptions is the per-call configuration assembled from ValidateOption
// values, mirroring the engine's trailing-options style.
type callOptions struct {
	groups   []string
	locale   language.Tag
	failFast bool
	location Location
}

// ValidateOption configures one validation call.
type ValidateOption func(*callOptions)

// WithGroups activates the given validation groups for the call.
func WithGroups(groups ...string) ValidateOption {
	return func(o *callOptions) { o.groups = groups }
}

// WithLocale selects the locale used for error messages, from a BCP 47 tag
// such as "en" or "ja-JP".
func WithLocale(tag string) ValidateOption {
	return func(o *callOptions) { o.locale = language.Make(tag) }
}

// WithFailFast makes each field stop at its first violation.
func WithFailFast() ValidateOption {
	return func(o *callOptions) { o.failFast = true }
}

// WithLocation tags produced errors with the given request region.
func WithLocation(loc Location) ValidateOption {
	return func(o *callOptions) { o.location = loc }
}

func buildCallOptions(opts []ValidateOption) callOptions {
	o := callOptions{locale: language.English, location: LocationBody}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o callOptions) context() Context {
	return Context{
		Location:    o.location,
		Locale:      o.locale,
		StopOnFirst: o.failFast,
		Groups:      o.groups,
	}
}

// SchemaOf returns the memoized schema for the type of sample, compiling it
// on first use. Concurrent first access to the same type compiles exactly
// once.
func (e *Engine) SchemaOf(sample any) (*Schema, error) {
	if sample == nil {
		return nil, &CompileError{Reason: "nil sample value"}
	}
	return e.schemaFor(reflect.TypeOf(sample))
}

func (e *Engine) schemaFor(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if s, ok := e.schemas.Load(t); ok {
		return s.(*Schema), nil
	}
	v, err, _ := e.group.Do(t.PkgPath()+"."+t.String(), func() (any, error) {
		if s, ok := e.schemas.Load(t); ok {
			return s, nil
		}
		start := time.Now()
		s, err := e.comp.Compile(t)
		if err != nil {
			return nil, err
		}
		e.schemas.Store(t, s)
		if e.log != nil {
			e.log.WithFields(logrus.Fields{
				"type":   t.String(),
				"fields": len(s.fields),
				"took":   time.Since(start),
			}).Debug("fieldcheck: schema compiled")
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Schema), nil
}

// Validate walks value against the schema derived from its type and returns
// the deduplicated error list. Constraint violations are data, not errors:
// the second return value reports only usage, compilation, and validator
// infrastructure failures.
func (e *Engine) Validate(ctx context.Context, value any, opts ...ValidateOption) ([]ApiError, error) {
	o := buildCallOptions(opts)
	d := classify.Of(value)
	switch {
	case d.Kind == classify.Object:
		s, err := e.schemaFor(d.Concrete)
		if err != nil {
			return nil, err
		}
		return e.run(ctx, value, s, d, o)
	case d.Kind == classify.Map:
		return nil, &CompileError{Type: d.Concrete, Reason: "map roots need an explicit schema; use ValidateWithSchema"}
	case d.Kind.IsArray():
		return e.validateArrayRoot(ctx, value, d, o)
	default:
		return nil, ErrScalarRoot
	}
}

// ValidateWithSchema walks value against an explicitly compiled schema,
// which is how map-shaped sections (query, header, path) are validated.
func (e *Engine) ValidateWithSchema(ctx context.Context, value any, s *Schema, opts ...ValidateOption) ([]ApiError, error) {
	if s == nil {
		return nil, &CompileError{Reason: "nil schema"}
	}
	o := buildCallOptions(opts)
	d := classify.Of(value)
	if d.Kind.IsArray() {
		return e.runArray(ctx, value, s, d, o)
	}
	if value != nil && d.Kind != classify.Object && d.Kind != classify.Map {
		return nil, ErrScalarRoot
	}
	return e.run(ctx, value, s, d, o)
}

func (e *Engine) validateArrayRoot(ctx context.Context, value any, d classify.TypeDescriptor, o callOptions) ([]ApiError, error) {
	elem := elemDescOf(d)
	for elem.Kind.IsArray() {
		elem = elemDescOf(elem)
	}
	switch elem.Kind {
	case classify.Object:
		s, err := e.schemaFor(elem.Concrete)
		if err != nil {
			return nil, err
		}
		return e.runArray(ctx, value, s, d, o)
	case classify.Map, classify.Any:
		// No static element type means no schema to derive; running with a
		// nil element schema would pass everything unchecked.
		return nil, &CompileError{Type: d.Concrete,
			Reason: "array roots with map or untyped elements need an explicit schema; use ValidateWithSchema"}
	default:
		return nil, ErrScalarRoot
	}
}

func (e *Engine) run(ctx context.Context, value any, s *Schema, d classify.TypeDescriptor, o callOptions) ([]ApiError, error) {
	t := &traversal{strict: e.strict}
	vc := o.context()
	vc.Desc = d
	if err := t.fields(ctx, value, s, vc); err != nil {
		return nil, err
	}
	return Dedup(t.errs), nil
}

// runArray validates a root-level array. The root is forced non-empty: an
// empty sequence reports a presence violation at index 0.
func (e *Engine) runArray(ctx context.Context, value any, elemSchema *Schema, d classify.TypeDescriptor, o callOptions) ([]ApiError, error) {
	t := &traversal{strict: e.strict}
	vc := o.context()
	vc.Desc = d
	spec := &PropertySpec{Desc: d, Nested: elemSchema}
	if ed, ok := d.ElemDesc(); ok {
		spec.ElemDesc = ed
	}
	if err := t.array(ctx, value, spec, d, vc, true); err != nil {
		return nil, err
	}
	return Dedup(t.errs), nil
}

// Section pairs one independently-keyed request region with the schema it
// validates against.
type Section struct {
	Value  any
	Schema *Schema
}

// sectionOrder fixes the merge order of multi-section validation for
// deterministic output.
var sectionOrder = []Location{LocationBody, LocationQuery, LocationHeader, LocationPath, LocationBusiness}

// ValidateSections validates independently-keyed regions (body, query,
// header, path) against their own schemas and merges the combined,
// deduplicated error list.
func (e *Engine) ValidateSections(ctx context.Context, sections map[Location]Section, opts ...ValidateOption) ([]ApiError, error) {
	var all []ApiError
	for _, loc := range sectionOrder {
		sec, ok := sections[loc]
		if !ok {
			continue
		}
		callOpts := append(append([]ValidateOption(nil), opts...), WithLocation(loc))
		var (
			errs []ApiError
			err  error
		)
		if sec.Schema != nil {
			errs, err = e.ValidateWithSchema(ctx, sec.Value, sec.Schema, callOpts...)
		} else {
			errs, err = e.Validate(ctx, sec.Value, callOpts...)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, errs...)
	}
	return Dedup(all), nil
}

// ValidateJSON decodes a JSON request body into a fresh instance of sample's
// type and validates it. A malformed body surfaces as a single
// TYPE_VIOLATION at the root rather than an error.
func (e *Engine) ValidateJSON(ctx context.Context, data []byte, sample any, opts ...ValidateOption) ([]ApiError, error) {
	if sample == nil {
		return nil, &CompileError{Reason: "nil sample value"}
	}
	o := buildCallOptions(opts)
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	inst := reflect.New(t).Interface()
	if err := json.Unmarshal(data, inst); err != nil {
		return []ApiError{{
			Code:     CodeType,
			Message:  i18n.T(o.locale, CodeType, map[string]any{"cause": err.Error()}),
			Location: o.location,
		}}, nil
	}
	return e.Validate(ctx, inst, opts...)
}

// Check validates like Validate but returns a *ValidationError when the
// list is non-empty, for callers that want throw-on-failure semantics.
func (e *Engine) Check(ctx context.Context, value any, opts ...ValidateOption) error {
	errs, err := e.Validate(ctx, value, opts...)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
