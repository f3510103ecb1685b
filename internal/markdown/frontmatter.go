// Package markdown provides the pure text-model layer for vault documents:
// front-matter extraction, inline tag and wiki-link scanning, and
// heading-based section splitting. Nothing in this package touches the
// filesystem.
package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates front-matter value variants.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
)

// Value is a front-matter value: a scalar or a list of scalars. Any other
// shape in the source document (nested mappings, nulls, timestamps) is
// dropped at parse time so downstream metadata stays flat.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	List  []Value
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ListValue returns a list Value. Elements must be scalar.
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }

// Scalar returns the native Go value for a scalar Value. Lists return nil.
func (v Value) Scalar() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	}
	return nil
}

// StringForm renders the value for joining into metadata strings.
func (v Value) StringForm() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// FrontMatter is the flat key/value metadata block of a document.
type FrontMatter map[string]Value

// Flatten converts front matter into store metadata. Keys take an fm_
// prefix so they cannot collide with structural metadata. Scalars keep
// their native type; lists become ", "-joined strings; empty lists are
// dropped.
func (fm FrontMatter) Flatten() map[string]any {
	flat := make(map[string]any, len(fm))
	for key, value := range fm {
		if value.Kind == KindList {
			if len(value.List) == 0 {
				continue
			}
			parts := make([]string, len(value.List))
			for i, item := range value.List {
				parts[i] = item.StringForm()
			}
			flat["fm_"+key] = strings.Join(parts, ", ")
			continue
		}
		flat["fm_"+key] = value.Scalar()
	}
	return flat
}

// Tags returns the normalized tag list from the "tags" key: lower-cased,
// whitespace-trimmed, leading # stripped. A string value is split on
// commas; a list contributes each element; other shapes yield nothing.
func (fm FrontMatter) Tags() []string {
	value, ok := fm["tags"]
	if !ok {
		return nil
	}

	var raw []string
	switch value.Kind {
	case KindString:
		raw = strings.Split(value.Str, ",")
	case KindList:
		for _, item := range value.List {
			raw = append(raw, item.StringForm())
		}
	default:
		return nil
	}

	var tags []string
	for _, t := range raw {
		t = strings.TrimLeft(strings.ToLower(strings.TrimSpace(t)), "#")
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FrontMatterParser parses the raw text between front-matter delimiters.
// Two strategies exist: YAML and a line-oriented fallback.
type FrontMatterParser interface {
	Parse(block string) (FrontMatter, error)
}

// frontMatterEnd locates the closing delimiter line after the opening ---.
var frontMatterEnd = regexp.MustCompile(`\n---\s*\n`)

// ParseFrontMatter splits content into (front matter, body). Fail-soft:
// a document that does not open with ---, an unterminated block, or a
// block the parser rejects all yield empty front matter with the entire
// original text as body.
func ParseFrontMatter(content string, parser FrontMatterParser) (FrontMatter, string) {
	if !strings.HasPrefix(content, "---") {
		return FrontMatter{}, content
	}

	rest := content[3:]
	loc := frontMatterEnd.FindStringIndex(rest)
	if loc == nil {
		return FrontMatter{}, content
	}

	block := rest[:loc[0]]
	body := rest[loc[1]:]

	fm, err := parser.Parse(block)
	if err != nil {
		return FrontMatter{}, content
	}
	return fm, body
}

// YAMLFrontMatter parses front-matter blocks as YAML mappings.
type YAMLFrontMatter struct{}

// Parse implements FrontMatterParser.
func (YAMLFrontMatter) Parse(block string) (FrontMatter, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("front matter is not a mapping")
	}

	fm := make(FrontMatter, len(raw))
	for key, v := range raw {
		if value, ok := convertYAML(v); ok {
			fm[key] = value
		}
	}
	return fm, nil
}

// convertYAML maps a decoded YAML value onto the Value union. Mappings,
// nulls, timestamps, and nested lists are dropped; list elements that are
// not scalar are dropped individually.
func convertYAML(v any) (Value, bool) {
	switch t := v.(type) {
	case string:
		return StringValue(t), true
	case bool:
		return BoolValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case uint64:
		return IntValue(int64(t)), true
	case float64:
		return FloatValue(t), true
	case []any:
		var items []Value
		for _, elem := range t {
			if value, ok := convertYAML(elem); ok && value.Kind != KindList {
				items = append(items, value)
			}
		}
		return ListValue(items), true
	}
	return Value{}, false
}

// SimpleFrontMatter is the line-oriented fallback strategy: one
// `key: value` per line, recognizing bracketed lists, booleans, and
// numeric literals, defaulting everything else to string.
type SimpleFrontMatter struct{}

// Parse implements FrontMatterParser. It never fails: unparseable lines
// are skipped.
func (SimpleFrontMatter) Parse(block string) (FrontMatter, error) {
	fm := FrontMatter{}
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		fm[key] = parseSimpleValue(value)
	}
	return fm, nil
}

func parseSimpleValue(value string) Value {
	switch {
	case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
		var items []Value
		for _, item := range strings.Split(value[1:len(value)-1], ",") {
			item = strings.Trim(strings.TrimSpace(item), `"'`)
			if item != "" {
				items = append(items, StringValue(item))
			}
		}
		return ListValue(items)
	case strings.EqualFold(value, "true"), strings.EqualFold(value, "false"):
		return BoolValue(strings.EqualFold(value, "true"))
	case looksNumeric(value):
		if !strings.Contains(value, ".") {
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				return IntValue(n)
			}
			return StringValue(value)
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return FloatValue(f)
		}
		return StringValue(value)
	default:
		return StringValue(strings.Trim(value, `"'`))
	}
}

// looksNumeric reports whether the value is all digits after removing at
// most one decimal point and one minus sign.
func looksNumeric(s string) bool {
	t := strings.Replace(s, ".", "", 1)
	t = strings.Replace(t, "-", "", 1)
	if t == "" {
		return false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
