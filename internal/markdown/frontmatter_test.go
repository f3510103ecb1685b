package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatter_NoDelimiter(t *testing.T) {
	content := "# Title\n\nJust a body."

	fm, body := ParseFrontMatter(content, YAMLFrontMatter{})

	assert.Empty(t, fm)
	assert.Equal(t, content, body)
}

func TestParseFrontMatter_BasicBlock(t *testing.T) {
	content := "---\ntitle: Weekly Review\ncount: 4\nratio: 0.5\ndraft: true\n---\n\nBody text here."

	fm, body := ParseFrontMatter(content, YAMLFrontMatter{})

	require.Len(t, fm, 4)
	assert.Equal(t, StringValue("Weekly Review"), fm["title"])
	assert.Equal(t, IntValue(4), fm["count"])
	assert.Equal(t, FloatValue(0.5), fm["ratio"])
	assert.Equal(t, BoolValue(true), fm["draft"])
	assert.Equal(t, "Body text here.", body)
}

// An opened but never closed block is not an error; the whole document
// stays intact as body.
func TestParseFrontMatter_Unterminated(t *testing.T) {
	content := "---\ntitle: Dangling\n\nThis never closes."

	fm, body := ParseFrontMatter(content, YAMLFrontMatter{})

	assert.Empty(t, fm)
	assert.Equal(t, content, body)
}

func TestParseFrontMatter_MalformedYAML(t *testing.T) {
	content := "---\n- just\n- a\n- list\n---\nBody."

	fm, body := ParseFrontMatter(content, YAMLFrontMatter{})

	assert.Empty(t, fm)
	assert.Equal(t, content, body, "malformed front matter keeps the original text as body")
}

func TestParseFrontMatter_ListsAndDroppedShapes(t *testing.T) {
	content := "---\ntags: [ref, howto]\nnested:\n  a: 1\nempty:\nmixed: [ok, {bad: 1}, 7]\n---\nBody."

	fm, _ := ParseFrontMatter(content, YAMLFrontMatter{})

	require.Contains(t, fm, "tags")
	assert.Equal(t, ListValue([]Value{StringValue("ref"), StringValue("howto")}), fm["tags"])

	// Nested mappings and nulls are silently dropped.
	assert.NotContains(t, fm, "nested")
	assert.NotContains(t, fm, "empty")

	// Non-scalar list elements are dropped individually.
	assert.Equal(t, ListValue([]Value{StringValue("ok"), IntValue(7)}), fm["mixed"])
}

func TestSimpleFrontMatter_ParsesLiteralKinds(t *testing.T) {
	block := "title: \"My Note\"\ntags: [a, 'b', c]\ndraft: False\nstars: 5\nscore: -1.5\ndate: 2024-01-15\nplain: hello world"

	fm, err := SimpleFrontMatter{}.Parse(block)
	require.NoError(t, err)

	assert.Equal(t, StringValue("My Note"), fm["title"])
	assert.Equal(t, ListValue([]Value{StringValue("a"), StringValue("b"), StringValue("c")}), fm["tags"])
	assert.Equal(t, BoolValue(false), fm["draft"])
	assert.Equal(t, IntValue(5), fm["stars"])
	assert.Equal(t, FloatValue(-1.5), fm["score"])
	assert.Equal(t, StringValue("2024-01-15"), fm["date"], "dates with two dashes stay strings")
	assert.Equal(t, StringValue("hello world"), fm["plain"])
}

func TestSimpleFrontMatter_SkipsLinesWithoutColon(t *testing.T) {
	fm, err := SimpleFrontMatter{}.Parse("just a line\nkey: value")
	require.NoError(t, err)

	assert.Len(t, fm, 1)
	assert.Equal(t, StringValue("value"), fm["key"])
}

func TestFrontMatter_Flatten(t *testing.T) {
	fm := FrontMatter{
		"title": StringValue("Note"),
		"stars": IntValue(5),
		"ratio": FloatValue(1.5),
		"draft": BoolValue(true),
		"tags":  ListValue([]Value{StringValue("a"), IntValue(2)}),
		"blank": ListValue(nil),
	}

	flat := fm.Flatten()

	assert.Equal(t, map[string]any{
		"fm_title": "Note",
		"fm_stars": int64(5),
		"fm_ratio": 1.5,
		"fm_draft": true,
		"fm_tags":  "a, 2",
	}, flat)
}

func TestFrontMatter_Tags(t *testing.T) {
	tests := []struct {
		name string
		fm   FrontMatter
		want []string
	}{
		{
			name: "list value",
			fm:   FrontMatter{"tags": ListValue([]Value{StringValue("Ref"), StringValue("#HowTo")})},
			want: []string{"ref", "howto"},
		},
		{
			name: "comma string",
			fm:   FrontMatter{"tags": StringValue("ref, howto , #daily")},
			want: []string{"ref", "howto", "daily"},
		},
		{
			name: "scalar non-string yields nothing",
			fm:   FrontMatter{"tags": IntValue(3)},
			want: nil,
		},
		{
			name: "absent key",
			fm:   FrontMatter{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fm.Tags())
		})
	}
}

func TestParseFrontMatter_BlankLinesAfterDelimiter(t *testing.T) {
	content := "---\ntitle: x\n---\n\n\nBody starts here."

	_, body := ParseFrontMatter(content, YAMLFrontMatter{})

	// The closing delimiter match absorbs trailing blank lines.
	assert.Equal(t, "Body starts here.", body)
}
