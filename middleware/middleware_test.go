package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	fieldcheck "github.com/reoring/fieldcheck"
)

func TestContextRoundTrip(t *testing.T) {
	type body struct{ Name string }

	ctx := ContextWithValidated(context.Background(), body{Name: "x"})
	got, ok := ValidatedFromContext[body](ctx)
	if !ok || got.Name != "x" {
		t.Fatalf("got %+v, %v", got, ok)
	}

	if _, ok := ValidatedFromContext[body](context.Background()); ok {
		t.Error("empty context should not carry a value")
	}
	// keys are typed: a different T does not collide
	if _, ok := ValidatedFromContext[int](ctx); ok {
		t.Error("mismatched type should not resolve")
	}
}

func TestQuerySection(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?page=2&page=9&sort=asc", nil)
	q := QuerySection(r)
	if q["page"] != "2" {
		t.Errorf("page = %q, want the first value", q["page"])
	}
	if q["sort"] != "asc" {
		t.Errorf("sort = %q", q["sort"])
	}
}

func TestHeaderSection(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Tenant", "acme")
	h := HeaderSection(r)
	if h["X-Tenant"] != "acme" {
		t.Errorf("header map = %+v", h)
	}
}

func TestErrorPayload(t *testing.T) {
	errs := []fieldcheck.ApiError{{Path: "name", Code: fieldcheck.CodeRequired}}
	p := ErrorPayload(errs)
	got, ok := p["errors"].([]fieldcheck.ApiError)
	if !ok || len(got) != 1 || got[0].Path != "name" {
		t.Fatalf("payload = %+v", p)
	}
}
