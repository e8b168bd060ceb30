package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestBuiltinMessages(t *testing.T) {
	c := NewCatalog()

	require.Equal(t, "is required", c.Message(language.English, "REQUIRED_VIOLATION", nil))
	require.Equal(t, "必須項目です", c.Message(language.Japanese, "REQUIRED_VIOLATION", nil))
	require.Equal(t, "must be at least 3", c.Message(language.English, "MIN_VIOLATION", map[string]any{"min": 3}))
}

func TestFallbackToEnglish(t *testing.T) {
	c := NewCatalog()
	require.Equal(t, "is required", c.Message(language.Dutch, "REQUIRED_VIOLATION", nil))
}

func TestRegionalVariantsMatch(t *testing.T) {
	c := NewCatalog()
	require.Equal(t, "必須項目です", c.Message(language.MustParse("ja-JP"), "REQUIRED_VIOLATION", nil))
}

func TestUnknownCodeEchoes(t *testing.T) {
	c := NewCatalog()
	require.Equal(t, "SOMETHING_ELSE", c.Message(language.English, "SOMETHING_ELSE", nil))
}

func TestAddMergesDictionary(t *testing.T) {
	c := NewCatalog()
	c.Add(language.English, map[string]string{"CUSTOM": "custom {n}"})
	require.Equal(t, "custom 7", c.Message(language.English, "CUSTOM", map[string]any{"n": 7}))
	// existing entries survive the merge
	require.Equal(t, "is required", c.Message(language.English, "REQUIRED_VIOLATION", nil))
}

func TestLoadYAML(t *testing.T) {
	c := NewCatalog()
	err := c.LoadYAML([]byte(`
nl:
  REQUIRED_VIOLATION: is verplicht
en:
  CUSTOM: custom
`))
	require.NoError(t, err)
	require.Equal(t, "is verplicht", c.Message(language.Dutch, "REQUIRED_VIOLATION", nil))
	require.Equal(t, "custom", c.Message(language.English, "CUSTOM", nil))

	require.Error(t, c.LoadYAML([]byte(`"not a mapping"`)))
	require.Error(t, c.LoadYAML([]byte("'!!': {X: y}\n")))
}

func TestExpandLeavesUnknownPlaceholders(t *testing.T) {
	c := NewCatalog()
	c.Add(language.English, map[string]string{"P": "{a} and {b}"})
	require.Equal(t, "1 and {b}", c.Message(language.English, "P", map[string]any{"a": 1}))
}

func TestSetTranslator(t *testing.T) {
	custom := translatorFunc(func(lang language.Tag, code string, params map[string]any) string {
		return "custom:" + code
	})
	SetTranslator(custom)
	defer SetTranslator(nil)

	require.Equal(t, "custom:REQUIRED_VIOLATION", T(language.English, "REQUIRED_VIOLATION", nil))

	SetTranslator(nil)
	require.Equal(t, "is required", T(language.English, "REQUIRED_VIOLATION", nil))
}

type translatorFunc func(lang language.Tag, code string, params map[string]any) string

func (f translatorFunc) Message(lang language.Tag, code string, params map[string]any) string {
	return f(lang, code, params)
}
