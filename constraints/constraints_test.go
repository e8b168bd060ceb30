package constraints

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/classify"
)

func testCtx() fieldcheck.Context {
	return fieldcheck.Context{Locale: language.English}
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *int
	var nilSlice []int
	empty := []struct {
		name string
		v    any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"empty slice", []int{}},
		{"nil slice", nilSlice},
		{"empty map", map[string]int{}},
		{"nil pointer", nilPtr},
	}
	for _, c := range empty {
		require.True(t, isEmpty(c.v), c.name)
	}

	full := []struct {
		name string
		v    any
	}{
		{"zero int", 0}, // zero is a value, not absence
		{"false", false},
		{"string", "x"},
		{"slice", []int{1}},
	}
	for _, c := range full {
		require.False(t, isEmpty(c.v), c.name)
	}
}

func TestRequiredValidator(t *testing.T) {
	ae, err := requiredValidator.Check(context.Background(), nil, &Required{}, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeRequired, ae.Code)
	require.Equal(t, "is required", ae.Message)

	ae, err = requiredValidator.Check(context.Background(), 0, &Required{}, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)
}

func TestMinMaxValidators(t *testing.T) {
	ae, err := minValidator.Check(context.Background(), 2, &Min{N: 3}, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeMin, ae.Code)
	require.Equal(t, float64(3), ae.Data["min"])

	ae, err = minValidator.Check(context.Background(), 3, &Min{N: 3}, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)

	// strings holding numbers widen, matching query parameter validation
	ae, err = minValidator.Check(context.Background(), "2", &Min{N: 3}, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)

	ae, err = maxValidator.Check(context.Background(), 4.5, &Max{N: 4}, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeMax, ae.Code)

	// non-numeric values are out of scope for bounds, not violations
	ae, err = minValidator.Check(context.Background(), "abc", &Min{N: 3}, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		param    string
		min, max int
	}{
		{"2:10", 2, 10},
		{"2", 2, 2}, // single number means exact
		{":10", 0, 10},
		{"2:", 2, -1},
	}
	for _, c := range cases {
		got, err := parseLength(c.param)
		require.NoError(t, err, c.param)
		l := got.(*Length)
		require.Equal(t, c.min, l.Min, c.param)
		require.Equal(t, c.max, l.Max, c.param)
	}

	_, err := parseLength("abc")
	require.Error(t, err)
}

func TestLengthValidator(t *testing.T) {
	l := &Length{Min: 2, Max: 4}

	ae, err := lengthValidator.Check(context.Background(), "héll", l, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae, "length counts runes, not bytes")

	ae, err = lengthValidator.Check(context.Background(), "x", l, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeLength, ae.Code)
	require.Equal(t, 1, ae.Data["got"])

	ae, err = lengthValidator.Check(context.Background(), []any{1, 2, 3, 4, 5}, l, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)

	unbounded := &Length{Min: 1, Max: -1}
	ae, err = lengthValidator.Check(context.Background(), "very long string", unbounded, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)
}

func TestPattern(t *testing.T) {
	_, err := parsePattern("([")
	require.Error(t, err, "invalid expressions fail at parse time")

	c, err := parsePattern(`^[a-z]+$`)
	require.NoError(t, err)

	ae, err := patternValidator.Check(context.Background(), "abc", c, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)

	ae, err = patternValidator.Check(context.Background(), "ABC", c, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodePattern, ae.Code)
}

func TestOneOf(t *testing.T) {
	_, err := parseOneOf("")
	require.Error(t, err)

	c, err := parseOneOf("asc|desc")
	require.NoError(t, err)

	ae, err := oneOfValidator.Check(context.Background(), "asc", c, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)

	ae, err = oneOfValidator.Check(context.Background(), "sideways", c, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeEnum, ae.Code)
	require.Equal(t, "sideways", ae.Data["got"])
}

func TestEqField(t *testing.T) {
	type pair struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	c := &EqField{Field: "b"}

	vc := testCtx()
	vc.ObjectRef = pair{A: "x", B: "x"}
	ae, err := eqFieldValidator.Check(context.Background(), "x", c, vc)
	require.NoError(t, err)
	require.Nil(t, ae)

	vc.ObjectRef = pair{A: "x", B: "y"}
	ae, err = eqFieldValidator.Check(context.Background(), "x", c, vc)
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeEquality, ae.Code)

	// map containers resolve siblings by key
	vc.ObjectRef = map[string]any{"b": 3}
	ae, err = eqFieldValidator.Check(context.Background(), 3.0, c, vc)
	require.NoError(t, err)
	require.Nil(t, ae, "numeric values compare after widening")

	// a missing sibling is not a violation of this value
	vc.ObjectRef = pair{}
	ae, err = eqFieldValidator.Check(context.Background(), "x", &EqField{Field: "nope"}, vc)
	require.NoError(t, err)
	require.Nil(t, ae)
}

func TestDistinctBy(t *testing.T) {
	c := &DistinctBy{Field: "name"}
	seq := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"name": "a"},
		map[string]any{"name": "a"},
	}
	ae, err := distinctValidator.Check(context.Background(), seq, c, testCtx())
	require.NoError(t, err)
	require.NotNil(t, ae)
	require.Equal(t, fieldcheck.CodeDistinct, ae.Code)
	require.Equal(t, "a", ae.Data["value"])
	require.Equal(t, 0, ae.Data["first"])
	require.Equal(t, 2, ae.Data["dup"])

	distinct := []any{
		map[string]any{"name": "a"},
		nil, // nil elements are skipped
		map[string]any{"name": "b"},
	}
	ae, err = distinctValidator.Check(context.Background(), distinct, c, testCtx())
	require.NoError(t, err)
	require.Nil(t, ae)
}

func TestLookupField(t *testing.T) {
	type named struct {
		Display string `json:"display"`
		Count   int
	}

	v, ok := lookupField(named{Display: "d"}, "display")
	require.True(t, ok)
	require.Equal(t, "d", v)

	v, ok = lookupField(&named{Count: 3}, "Count")
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = lookupField(named{}, "nope")
	require.False(t, ok)

	v, ok = lookupField(map[string]int{"k": 9}, "k")
	require.True(t, ok)
	require.Equal(t, 9, v)

	_, ok = lookupField(nil, "k")
	require.False(t, ok)

	_, ok = lookupField(42, "k")
	require.False(t, ok)
}

func TestDefaultRegistryParsesGroups(t *testing.T) {
	reg := DefaultRegistry()
	decls, err := reg.Parse("required@create,min=3@create|admin,max=9")
	require.NoError(t, err)
	require.Len(t, decls, 3)
	require.Equal(t, []string{"create"}, decls[0].Groups())
	require.Equal(t, []string{"create", "admin"}, decls[1].Groups())
	require.Empty(t, decls[2].Groups())
}

func TestDefaultRegistryResolution(t *testing.T) {
	reg := DefaultRegistry()

	numeric := classify.TypeDescriptor{Kind: classify.Numeric}
	_, ok := reg.Resolve(&Min{}, numeric)
	require.True(t, ok)

	str := classify.TypeDescriptor{Kind: classify.String}
	_, ok = reg.Resolve(&Min{}, str)
	require.False(t, ok, "min has no string validator")

	_, ok = reg.Resolve(&Required{}, str)
	require.True(t, ok, "required accepts anything")

	arr := classify.TypeDescriptor{
		Kind: classify.ArrayOfObject,
		Elem: []classify.TypeDescriptor{{Kind: classify.Object}},
	}
	_, ok = reg.Resolve(&DistinctBy{}, arr)
	require.True(t, ok)
}
