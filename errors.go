package fieldcheck

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Violation codes (exported consts for IDE completion and type safety by convention)
const (
	CodeRequired     = "REQUIRED_VIOLATION"
	CodeType         = "TYPE_VIOLATION"
	CodeMin          = "MIN_VIOLATION"
	CodeMax          = "MAX_VIOLATION"
	CodeLength       = "LENGTH_VIOLATION"
	CodePattern      = "PATTERN_VIOLATION"
	CodeEnum         = "ENUM_VIOLATION"
	CodeFormat       = "FORMAT_VIOLATION"
	CodeEquality     = "EQUALITY_VIOLATION"
	CodeDistinct     = "DISTINCT_VALUE_VIOLATION"
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"
)

// Location tags which region of a request an error belongs to.
type Location string

const (
	LocationBody     Location = "BODY"
	LocationQuery    Location = "QUERY"
	LocationHeader   Location = "HEADER"
	LocationPath     Location = "PATH"
	LocationBusiness Location = "BUSINESS"
)

// ApiError represents a single validation entry. Identity for deduplication
// is (Path, Code, Location).
type ApiError struct {
	Path     string   `json:"path"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
	// Data carries structured parameters (e.g. {"min":1, "got":42}) for
	// clients and observability.
	Data map[string]any `json:"data,omitempty"`
}

// Dedup removes errors sharing (path, code, location), keeping the first
// occurrence and the original order.
func Dedup(errs []ApiError) []ApiError {
	if len(errs) < 2 {
		return errs
	}
	type key struct {
		path, code string
		loc        Location
	}
	seen := make(map[key]struct{}, len(errs))
	out := errs[:0]
	for _, e := range errs {
		k := key{path: e.Path, code: e.Code, loc: e.Location}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// ValidationError aggregates a deduplicated error list for callers that want
// throw-on-failure semantics. The engine's Validate never returns it for
// mere violations; only Check does.
type ValidationError struct {
	Errors []ApiError
}

// Error summarizes the first few entries.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(e.Errors)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := e.Errors[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsValidationError extracts a *ValidationError using errors.As internally.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// CompileError reports a fatal schema-construction failure: a constraint
// with no compatible validator, an unresolvable field, or a schema without
// any usable constraint. These fail loudly at startup, never at request
// time.
type CompileError struct {
	Type   reflect.Type
	Field  string
	Reason string
	Cause  error
}

func (e *CompileError) Error() string {
	b := &strings.Builder{}
	b.WriteString("fieldcheck: compile")
	if e.Type != nil {
		fmt.Fprintf(b, " %v", e.Type)
	}
	if e.Field != "" {
		fmt.Fprintf(b, " field %q", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *CompileError) Unwrap() error { return e.Cause }

// ErrScalarRoot rejects validating a bare scalar root; only objects, maps,
// and arrays of those are valid entry values.
var ErrScalarRoot = errors.New("fieldcheck: root value must be an object or an array of objects")
