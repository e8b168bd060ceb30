package classify

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type color string

func (c color) String() string { return string(c) }

type level int

func (l level) String() string { return "level" }

type plainAlias string

type profile struct {
	Name string
}

type tagless struct {
	Ignored string `check:"-"`
}

func TestClassifyScalars(t *testing.T) {
	cases := []struct {
		v    any
		want Kind
	}{
		{true, Bool},
		{"s", String},
		{42, Numeric},
		{int64(42), Numeric},
		{uint16(7), Numeric},
		{3.14, Numeric},
		{uint8(1), Byte},
		{time.Now(), DateTime},
		{big.NewFloat(1.5), Decimal},
		{big.NewInt(3), Decimal},
		{json.Number("1.5"), Decimal},
		{color("red"), Enum},
		{level(1), Enum},
		{plainAlias("x"), String},
		{profile{}, Object},
		{tagless{}, Any},
		{map[string]int{}, Map},
	}
	for _, c := range cases {
		if got := Of(c.v).Kind; got != c.want {
			t.Errorf("Of(%T) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestClassifyPointerTransparency(t *testing.T) {
	n := 42
	d := Of(&n)
	if d.Kind != Numeric {
		t.Fatalf("Of(*int) = %v, want numeric", d.Kind)
	}
	if d.Concrete != reflect.TypeOf(0) {
		t.Errorf("Concrete = %v, want int", d.Concrete)
	}
	if d.Root != reflect.TypeOf(&n) {
		t.Errorf("Root = %v, want *int", d.Root)
	}

	pp := &n
	if Of(&pp).Kind != Numeric {
		t.Error("double pointer should classify like its base")
	}
}

func TestClassifyArrays(t *testing.T) {
	d := Of([]profile{})
	if d.Kind != ArrayOfObject {
		t.Fatalf("[]profile = %v", d.Kind)
	}
	elem, ok := d.ElemDesc()
	if !ok || elem.Kind != Object {
		t.Fatalf("elem = %v, %v", elem.Kind, ok)
	}

	d = Of([][]int{})
	if d.Kind != ArrayOfArray {
		t.Fatalf("[][]int = %v", d.Kind)
	}
	elem, _ = d.ElemDesc()
	if elem.Kind != ArrayOfNumeric {
		t.Fatalf("[][]int elem = %v", elem.Kind)
	}
	inner, _ := elem.ElemDesc()
	if inner.Kind != Numeric {
		t.Fatalf("innermost = %v", inner.Kind)
	}

	if Of([3]string{}).Kind != ArrayOfString {
		t.Error("fixed arrays classify like slices")
	}
}

func TestElemKind(t *testing.T) {
	if k := Of([]string{}).ElemKind(); k != String {
		t.Errorf("ElemKind = %v", k)
	}
	if k := Of("s").ElemKind(); k != Any {
		t.Errorf("non-array ElemKind = %v, want any", k)
	}
}

func TestRegisterKindOverride(t *testing.T) {
	type civilDate struct{ Y, M, D int }
	if Of(civilDate{}).Kind != Object {
		t.Fatal("precondition: civilDate classifies as object")
	}
	RegisterKind(reflect.TypeOf(civilDate{}), Date)
	defer func() {
		overrides.Delete(reflect.TypeOf(civilDate{}))
		cache.Delete(reflect.TypeOf(civilDate{}))
	}()
	if Of(civilDate{}).Kind != Date {
		t.Error("override not applied")
	}
}

func TestKindHelpers(t *testing.T) {
	if !ArrayOfString.IsArray() || String.IsArray() {
		t.Error("IsArray")
	}
	if ArrayOf(String) != ArrayOfString {
		t.Error("ArrayOf scalar")
	}
	if ArrayOf(ArrayOfString) != ArrayOfArray {
		t.Error("ArrayOf array collapses to array-of-array")
	}
	if ArrayOfString.Base() != String {
		t.Error("Base")
	}
	if ArrayOfArray.Base() != ArrayOfAny {
		t.Error("Base of array-of-array")
	}
	if Numeric.Base() != Numeric {
		t.Error("Base of non-array")
	}
	for _, k := range []Kind{Numeric, Decimal, Byte, Char} {
		if !k.IsNumericFamily() {
			t.Errorf("%v should be numeric family", k)
		}
	}
	if String.IsNumericFamily() || ArrayOfNumeric.IsNumericFamily() {
		t.Error("non-members in numeric family")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Numeric:       "numeric",
		ArrayOfString: "array-of-string",
		ArrayOfArray:  "array-of-array",
		Object:        "object",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestClassifyMemoized(t *testing.T) {
	a := Classify(reflect.TypeOf(profile{}))
	b := Classify(reflect.TypeOf(profile{}))
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated classification differs")
	}
}

func TestClassifyNil(t *testing.T) {
	if Of(nil).Kind != Any {
		t.Error("nil classifies as any")
	}
	if Classify(nil).Kind != Any {
		t.Error("nil type classifies as any")
	}
}
