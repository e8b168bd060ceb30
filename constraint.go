package fieldcheck

import (
	"context"
	"fmt"
	"strings"
)

// Constraint is the resolved, typed configuration of one declared rule.
// Implementations are plain metadata values; the matching Validator carries
// the behavior.
type Constraint interface {
	// Code is the violation code errors produced for this constraint carry.
	Code() string
	// Groups are the validation groups the constraint is scoped to. Empty
	// means the constraint always applies.
	Groups() []string
}

// PresenceConstraint marks required/presence rules. They sort before every
// other constraint of a field so fail-fast can short-circuit on missing
// values, and they force placeholder synthesis for empty required arrays.
type PresenceConstraint interface {
	Constraint
	Presence()
}

// ContainerConstraint marks a constraint that applies to an array as a whole
// rather than to its elements. TargetField names the nested property the
// rule inspects per element (e.g. distinct-by-field); it must exist in the
// element schema, which the compiler verifies.
type ContainerConstraint interface {
	Constraint
	TargetField() string
}

// GroupScoped is implemented by constraints that accept group scoping from
// tag declarations ("min=3@create|update").
type GroupScoped interface {
	SetGroups(groups []string)
}

// ConstraintBase provides group storage for constraint metadata types.
// Embed it by pointer-receiver convention: metadata types are pointers.
type ConstraintBase struct {
	groups []string
}

// Groups returns the declared validation groups.
func (b *ConstraintBase) Groups() []string { return b.groups }

// SetGroups sets the declared validation groups.
func (b *ConstraintBase) SetGroups(groups []string) { b.groups = groups }

// ParseFunc is the pure conversion function a constraint type exposes: it
// turns one tag declaration parameter into constraint metadata. There is no
// annotation scanning beyond the tag read.
type ParseFunc func(param string) (Constraint, error)

// Validator is the pluggable capability that evaluates one constraint
// against one value. Implementations must be stateless or effectively
// immutable: one instance is shared across all concurrent validations. A
// non-nil *ApiError reports a violation; a non-nil error reports an
// infrastructure failure (I/O, cancellation) and aborts the traversal.
type Validator interface {
	Check(ctx context.Context, value any, c Constraint, vc Context) (*ApiError, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, value any, c Constraint, vc Context) (*ApiError, error)

// Check implements Validator.
func (f ValidatorFunc) Check(ctx context.Context, value any, c Constraint, vc Context) (*ApiError, error) {
	return f(ctx, value, c, vc)
}

// parseDeclarations parses a tag value into constraint metadata using the
// registered parsers. Grammar: comma-separated items, each "name" or
// "name=param", optionally group-scoped with "@g1|g2". The reserved items
// "name=..." and "-" configure the field key and are skipped here.
func parseDeclarations(parsers map[string]ParseFunc, tag string) ([]Constraint, error) {
	if tag == "" || tag == "-" {
		return nil, nil
	}
	var out []Constraint
	for _, item := range strings.Split(tag, ",") {
		item = strings.TrimSpace(item)
		if item == "" || item == "-" || strings.HasPrefix(item, "name=") {
			continue
		}
		var groups []string
		if at := strings.LastIndexByte(item, '@'); at >= 0 {
			for _, g := range strings.Split(item[at+1:], "|") {
				if g = strings.TrimSpace(g); g != "" {
					groups = append(groups, g)
				}
			}
			item = item[:at]
		}
		name, param := item, ""
		if eq := strings.IndexByte(item, '='); eq >= 0 {
			name, param = item[:eq], item[eq+1:]
		}
		parse, ok := parsers[name]
		if !ok {
			return nil, fmt.Errorf("unknown constraint %q", name)
		}
		c, err := parse(param)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", name, err)
		}
		if len(groups) > 0 {
			gs, ok := c.(GroupScoped)
			if !ok {
				return nil, fmt.Errorf("constraint %q does not accept groups", name)
			}
			gs.SetGroups(groups)
		}
		out = append(out, c)
	}
	return out, nil
}
