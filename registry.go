package fieldcheck

import (
	"reflect"

	"github.com/reoring/fieldcheck/classify"
)

// TypeMatch declares the value shapes a validator binding accepts. Elem is
// meaningful only for array kinds; classify.Any there accepts any element.
type TypeMatch struct {
	Kind classify.Kind
	Elem classify.Kind
}

// Exact builds a TypeMatch for a non-array kind.
func Exact(k classify.Kind) TypeMatch { return TypeMatch{Kind: k} }

// ArrayMatch builds a TypeMatch for an array of the given element kind.
func ArrayMatch(elem classify.Kind) TypeMatch {
	return TypeMatch{Kind: classify.ArrayOf(elem), Elem: elem}
}

// binding pairs a validator with the shapes it accepts.
type binding struct {
	accepts []TypeMatch
	v       Validator
}

// Registry is the precomputed mapping from constraint metadata type to the
// validators able to evaluate it, plus the tag parsers that produce the
// metadata. Build it once at startup and treat it as read-only afterwards;
// mutation is not synchronized.
type Registry struct {
	parsers  map[string]ParseFunc
	bindings map[reflect.Type][]binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers:  make(map[string]ParseFunc),
		bindings: make(map[reflect.Type][]binding),
	}
}

// RegisterConstraint registers the tag name and conversion function of a
// constraint type.
func (r *Registry) RegisterConstraint(name string, parse ParseFunc) {
	r.parsers[name] = parse
}

// Bind associates a validator with the metadata type of prototype for the
// given accepted shapes. Registration order breaks specificity ties.
func (r *Registry) Bind(prototype Constraint, v Validator, accepts ...TypeMatch) {
	t := reflect.TypeOf(prototype)
	r.bindings[t] = append(r.bindings[t], binding{accepts: accepts, v: v})
}

// Parse converts a tag declaration into constraint metadata values.
func (r *Registry) Parse(tag string) ([]Constraint, error) {
	return parseDeclarations(r.parsers, tag)
}

// Match specificity scores, lower is more specific. Primitive/boxed
// equivalence has no score of its own: classification dereferences pointers
// before matching ever happens.
const (
	matchExact      = 0 // exact kind, and exact element kind for arrays
	matchNumeric    = 1 // numeric validator over the numeric family
	matchComparable = 2 // decimal validator comparing any numeric kind
	matchSupertype  = 3 // object validator over any object
	matchWildcard   = 4 // map over any map, array over any-element arrays
	matchAnyElem    = 5 // any-accepting element validators for arrays
	matchAny        = 6 // any-accepting validators
	matchNone       = 7
)

func score(m TypeMatch, d classify.TypeDescriptor) int {
	dk := d.Kind
	switch {
	case m.Kind == dk && (!dk.IsArray() || m.Elem == d.ElemKind()):
		return matchExact
	case m.Kind == classify.Numeric && dk.IsNumericFamily():
		return matchNumeric
	case m.Kind == classify.Decimal && dk.IsNumericFamily():
		return matchComparable
	case m.Kind == classify.Object && dk == classify.Object:
		return matchSupertype
	case m.Kind == classify.Map && dk == classify.Map:
		return matchWildcard
	case m.Kind.IsArray() && dk.IsArray() && m.Elem == classify.Any && m.Kind != classify.ArrayOfArray:
		return matchWildcard
	case m.Kind.IsArray() && dk.IsArray() && score(TypeMatch{Kind: m.Elem}, elemDescOf(d)) < matchNone:
		return matchAnyElem
	case m.Kind == classify.Any:
		return matchAny
	}
	return matchNone
}

func elemDescOf(d classify.TypeDescriptor) classify.TypeDescriptor {
	if e, ok := d.ElemDesc(); ok {
		return e
	}
	return classify.TypeDescriptor{Kind: classify.Any}
}

// Resolve selects the most specific compatible validator for a constraint
// and value shape. Resolution happens once, at schema compile time; an
// unresolvable pair is a compile-time fatal error surfaced by the caller.
func (r *Registry) Resolve(c Constraint, d classify.TypeDescriptor) (Validator, bool) {
	best := matchNone
	var winner Validator
	for _, b := range r.bindings[reflect.TypeOf(c)] {
		for _, m := range b.accepts {
			if s := score(m, d); s < best {
				best = s
				winner = b.v
			}
		}
	}
	return winner, winner != nil
}
