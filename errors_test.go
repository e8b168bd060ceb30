package fieldcheck

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	in := []ApiError{
		{Path: "a", Code: CodeRequired, Location: LocationBody, Message: "first"},
		{Path: "b", Code: CodeMin, Location: LocationBody},
		{Path: "a", Code: CodeRequired, Location: LocationBody, Message: "second"},
		{Path: "a", Code: CodeRequired, Location: LocationQuery},
	}
	out := Dedup(in)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(out), out)
	}
	if out[0].Message != "first" {
		t.Errorf("dedup kept %q, want the first occurrence", out[0].Message)
	}
	if out[1].Path != "b" || out[2].Location != LocationQuery {
		t.Errorf("order not preserved: %+v", out)
	}
}

func TestDedupShortLists(t *testing.T) {
	if got := Dedup(nil); got != nil {
		t.Errorf("Dedup(nil) = %v", got)
	}
	one := []ApiError{{Path: "a", Code: CodeMin}}
	if got := Dedup(one); !reflect.DeepEqual(got, one) {
		t.Errorf("Dedup single = %v", got)
	}
}

func TestValidationErrorSummary(t *testing.T) {
	ve := &ValidationError{Errors: []ApiError{
		{Path: "a", Code: CodeRequired},
		{Path: "b", Code: CodeMin},
		{Path: "c", Code: CodeMax},
		{Path: "d", Code: CodeEnum},
	}}
	got := ve.Error()
	want := "REQUIRED_VIOLATION at a; MIN_VIOLATION at b; MAX_VIOLATION at c; ... (total 4)"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestAsValidationError(t *testing.T) {
	ve := &ValidationError{Errors: []ApiError{{Path: "a", Code: CodeRequired}}}
	wrapped := fmt.Errorf("handler: %w", ve)
	got, ok := AsValidationError(wrapped)
	if !ok || got != ve {
		t.Fatalf("AsValidationError(wrapped) = %v, %v", got, ok)
	}
	if _, ok := AsValidationError(errors.New("plain")); ok {
		t.Error("plain error should not unwrap to ValidationError")
	}
	if _, ok := AsValidationError(nil); ok {
		t.Error("nil should not unwrap")
	}
}

func TestCompileErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	ce := &CompileError{Type: reflect.TypeOf(struct{}{}), Field: "name", Reason: "tag", Cause: cause}
	msg := ce.Error()
	for _, want := range []string{"compile", `field "name"`, "tag", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(ce, cause) {
		t.Error("CompileError should unwrap to its cause")
	}
}
