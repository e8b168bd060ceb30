// Package i18n localizes validation error messages. A Catalog maps
// language tags to code/message dictionaries; the best catalog for a
// requested locale is chosen with golang.org/x/text language matching.
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Translator retrieves localized messages for violation codes. params
// provides optional metadata to embed in the message (for example "min" or
// "expected").
type Translator interface {
	Message(lang language.Tag, code string, params map[string]any) string
}

// Catalog is the built-in dictionary-based Translator. The zero value is
// not usable; construct with NewCatalog.
type Catalog struct {
	mu       sync.RWMutex
	messages map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewCatalog returns a catalog preloaded with the built-in English and
// Japanese dictionaries.
func NewCatalog() *Catalog {
	c := &Catalog{messages: map[language.Tag]map[string]string{}}
	c.Add(language.English, builtinEN)
	c.Add(language.Japanese, builtinJA)
	return c
}

// Add registers (or merges into) the dictionary for one language.
func (c *Catalog) Add(tag language.Tag, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dict, ok := c.messages[tag]
	if !ok {
		dict = make(map[string]string, len(messages))
		c.messages[tag] = dict
		c.tags = append(c.tags, tag)
		sort.Slice(c.tags, func(i, j int) bool { return c.tags[i].String() < c.tags[j].String() })
		c.rebuildMatcher()
	}
	for k, v := range messages {
		dict[k] = v
	}
}

// LoadYAML merges a YAML document of the shape
//
//	en:
//	  REQUIRED_VIOLATION: is required
//	ja:
//	  REQUIRED_VIOLATION: 必須項目です
//
// into the catalog. Unknown language tags are rejected.
func (c *Catalog) LoadYAML(data []byte) error {
	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	for lang, messages := range doc {
		tag, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("i18n: bad language tag %q: %w", lang, err)
		}
		c.Add(tag, messages)
	}
	return nil
}

// rebuildMatcher must run with mu held. English stays first so it is the
// fallback for unmatched locales.
func (c *Catalog) rebuildMatcher() {
	ordered := make([]language.Tag, 0, len(c.tags))
	for _, t := range c.tags {
		if t == language.English {
			ordered = append([]language.Tag{t}, ordered...)
		} else {
			ordered = append(ordered, t)
		}
	}
	c.matcher = language.NewMatcher(ordered)
	c.tags = ordered
}

// Message implements Translator. Unknown codes echo the code itself, like
// the zero-configuration behavior of most validation layers.
func (c *Catalog) Message(lang language.Tag, code string, params map[string]any) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, idx, _ := c.matcher.Match(lang)
	dict := c.messages[c.tags[idx]]
	msg, ok := dict[code]
	if !ok {
		return code
	}
	return expand(msg, params)
}

// expand substitutes {key} placeholders from params.
func expand(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.ContainsRune(msg, '{') {
		return msg
	}
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{"+k+"}", fmt.Sprint(v))
	}
	return msg
}

var builtinEN = map[string]string{
	"REQUIRED_VIOLATION":       "is required",
	"TYPE_VIOLATION":           "has the wrong type",
	"MIN_VIOLATION":            "must be at least {min}",
	"MAX_VIOLATION":            "must be at most {max}",
	"LENGTH_VIOLATION":         "has invalid length",
	"PATTERN_VIOLATION":        "has invalid format",
	"ENUM_VIOLATION":           "is not one of the allowed values",
	"FORMAT_VIOLATION":         "is not a valid {format}",
	"EQUALITY_VIOLATION":       "must equal field {field}",
	"DISTINCT_VALUE_VIOLATION": "contains duplicate values for {field}",
	"BUSINESS_RULE_VIOLATION":  "violates a business rule",
}

var builtinJA = map[string]string{
	"REQUIRED_VIOLATION":       "必須項目です",
	"TYPE_VIOLATION":           "型が不正です",
	"MIN_VIOLATION":            "{min}以上でなければなりません",
	"MAX_VIOLATION":            "{max}以下でなければなりません",
	"LENGTH_VIOLATION":         "長さが不正です",
	"PATTERN_VIOLATION":        "形式が不正です",
	"ENUM_VIOLATION":           "許可された値ではありません",
	"FORMAT_VIOLATION":         "有効な{format}ではありません",
	"EQUALITY_VIOLATION":       "フィールド{field}と一致しなければなりません",
	"DISTINCT_VALUE_VIOLATION": "{field}の値が重複しています",
	"BUSINESS_RULE_VIOLATION":  "ビジネスルール違反です",
}

var (
	defaultMu  sync.RWMutex
	defaultCat            = NewCatalog()
	defaultTr  Translator = defaultCat
)

// Default returns the process-wide catalog used by T when no custom
// Translator is installed.
func Default() *Catalog { return defaultCat }

// SetTranslator replaces the Translator implementation behind T (not
// limited to the dictionary version). A nil tr restores the built-in
// catalog.
func SetTranslator(tr Translator) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if tr == nil {
		defaultTr = defaultCat
		return
	}
	defaultTr = tr
}

// T fetches a message for the given code using the current Translator.
func T(lang language.Tag, code string, params map[string]any) string {
	defaultMu.RLock()
	tr := defaultTr
	defaultMu.RUnlock()
	return tr.Message(lang, code, params)
}
