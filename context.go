package fieldcheck

import (
	"golang.org/x/text/language"

	"github.com/reoring/fieldcheck/classify"
)

// Context is the per-call state threaded through a traversal: the canonical
// field path, the active groups, locale, location, and references to the
// enclosing object and array. It is a value type, copied with overrides at
// every recursion step and never shared mutably across branches.
type Context struct {
	FieldPath string
	FieldName string
	Desc      classify.TypeDescriptor
	Location  Location
	Locale    language.Tag
	// StopOnFirst makes each field stop at its first violation.
	StopOnFirst bool
	// Groups are the validation groups active for this call. A constraint
	// with declared groups only runs when they intersect this set.
	Groups []string
	// ObjectRef is the enclosing object instance, for sibling-aware
	// constraints such as field equality.
	ObjectRef any
	// ArrayRef is the sequence being traversed when inside an array.
	ArrayRef any
}

// field returns a copy scoped to a child field of owner.
func (c Context) field(name string, d classify.TypeDescriptor, owner any) Context {
	c.FieldPath = AppendPath(c.FieldPath, name)
	c.FieldName = name
	c.Desc = d
	c.ObjectRef = owner
	return c
}

// index returns a copy scoped to element i of seq.
func (c Context) index(i int, d classify.TypeDescriptor, seq any) Context {
	c.FieldPath = AppendIndex(c.FieldPath, i)
	c.Desc = d
	c.ArrayRef = seq
	return c
}

// groupsApply reports whether a constraint with the given declared groups
// runs under this context. No declared groups means the constraint always
// runs; otherwise the declared set must intersect the active one (an empty
// active set skips every group-scoped constraint). The smaller of the two
// sets drives the scan.
func (c Context) groupsApply(declared []string) bool {
	if len(declared) == 0 {
		return true
	}
	if len(c.Groups) == 0 {
		return false
	}
	small, big := declared, c.Groups
	if len(big) < len(small) {
		small, big = big, small
	}
	idx := make(map[string]struct{}, len(big))
	for _, g := range big {
		idx[g] = struct{}{}
	}
	for _, g := range small {
		if _, ok := idx[g]; ok {
			return true
		}
	}
	return false
}
