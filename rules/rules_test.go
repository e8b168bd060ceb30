package rules

import (
	"context"
	"testing"

	fieldcheck "github.com/reoring/fieldcheck"
)

type invoice struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
	Ship   ship   `json:"ship"`
	Lines  []line `json:"lines"`
}

type ship struct {
	City string `json:"city"`
}

type line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func TestViolation(t *testing.T) {
	v := Violation("lines[0].qty", "out of stock")
	if v.Code != fieldcheck.CodeBusinessRule || v.Location != fieldcheck.LocationBusiness {
		t.Fatalf("got %+v", v)
	}
	if v.Path != "lines[0].qty" || v.Message != "out of stock" {
		t.Fatalf("got %+v", v)
	}
}

func TestConditionalThen(t *testing.T) {
	r := If[invoice]("status", Eq, "shipped").Then(Require[invoice]("ship.city", "shipped invoices need a city"))

	errs := r(context.Background(), invoice{Status: "shipped"})
	if len(errs) != 1 || errs[0].Path != "ship.city" {
		t.Fatalf("condition held, got %+v", errs)
	}

	errs = r(context.Background(), invoice{Status: "draft"})
	if len(errs) != 0 {
		t.Fatalf("condition not held, got %+v", errs)
	}

	errs = r(context.Background(), invoice{Status: "shipped", Ship: ship{City: "Oslo"}})
	if len(errs) != 0 {
		t.Fatalf("satisfied rule, got %+v", errs)
	}
}

func TestConditionalOperators(t *testing.T) {
	cases := []struct {
		op   Op
		want any
		hold bool
	}{
		{Eq, 100, true},
		{Ne, 100, false},
		{Lt, 200, true},
		{Le, 100, true},
		{Gt, 100, false},
		{Ge, 100, true},
	}
	for _, c := range cases {
		got := If[invoice]("total", c.op, c.want).holds(invoice{Total: 100})
		if got != c.hold {
			t.Errorf("op %v against %v: holds = %v, want %v", c.op, c.want, got, c.hold)
		}
	}
	// missing path never holds
	if If[invoice]("nope", Eq, 1).holds(invoice{}) {
		t.Error("unknown path should not hold")
	}
}

func TestConditionalComposition(t *testing.T) {
	shippedAndBig := If[invoice]("status", Eq, "shipped").And(If[invoice]("total", Gt, 50))
	if !shippedAndBig.holds(invoice{Status: "shipped", Total: 60}) {
		t.Error("AND should hold")
	}
	if shippedAndBig.holds(invoice{Status: "shipped", Total: 10}) {
		t.Error("AND should fail on one miss")
	}

	either := If[invoice]("status", Eq, "draft").Or(If[invoice]("status", Eq, "void"))
	if !either.holds(invoice{Status: "void"}) {
		t.Error("OR should hold")
	}
	if either.holds(invoice{Status: "shipped"}) {
		t.Error("OR should fail when none hold")
	}
}

func TestAtLeastOne(t *testing.T) {
	r := AtLeastOne[invoice]("lines")
	errs := r(context.Background(), invoice{Lines: []line{}})
	if len(errs) != 1 || errs[0].Path != "lines[0]" {
		t.Fatalf("got %+v", errs)
	}
	if errs := r(context.Background(), invoice{Lines: []line{{SKU: "a"}}}); len(errs) != 0 {
		t.Fatalf("got %+v", errs)
	}
}

func TestUniqueBy(t *testing.T) {
	r := UniqueBy[invoice]("lines", "sku")
	errs := r(context.Background(), invoice{Lines: []line{
		{SKU: "a"}, {SKU: "b"}, {SKU: "a"},
	}})
	if len(errs) != 1 || errs[0].Path != "lines[2].sku" {
		t.Fatalf("got %+v", errs)
	}
	if errs[0].Code != fieldcheck.CodeBusinessRule {
		t.Errorf("code = %q", errs[0].Code)
	}
}

func TestSetApply(t *testing.T) {
	dup := func(ctx context.Context, v invoice) []fieldcheck.ApiError {
		return []fieldcheck.ApiError{Violation("total", "dup")}
	}
	set := NewSet(dup).Add(dup, AtLeastOne[invoice]("lines"))

	errs, err := set.Apply(context.Background(), invoice{Lines: []line{}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// the duplicated rule output collapses, the distinct one survives
	if len(errs) != 2 {
		t.Fatalf("got %+v", errs)
	}
	if errs[0].Path != "total" || errs[1].Path != "lines[0]" {
		t.Fatalf("got %+v", errs)
	}
}

func TestSetApplyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := NewSet(AtLeastOne[invoice]("lines"))
	if _, err := set.Apply(ctx, invoice{}); err == nil {
		t.Fatal("want cancellation error")
	}
}

func TestValueAtPathMaps(t *testing.T) {
	v, ok := valueAtPath(map[string]any{"a": map[string]any{"b": 7}}, "a.b")
	if !ok || v != 7 {
		t.Fatalf("got %v, %v", v, ok)
	}
	if _, ok := valueAtPath(map[string]any{}, "missing"); ok {
		t.Error("missing key should not resolve")
	}
}
