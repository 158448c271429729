package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bold() Handler {
	return Handler{Tag: "bold", Render: func(args []string) string {
		return "<b>" + strings.Join(args, "") + "</b>"
	}}
}

func note() Handler {
	return Handler{Tag: "note", Render: func(args []string) string {
		return strings.Join(args, "|")
	}}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		handlers []Handler
		want     string
	}{
		{"single", `Hello \bold{World}!`, []Handler{bold()}, "Hello <b>World</b>!"},
		{"nested braces", `\note{a{b}c}`, []Handler{note()}, "a{b}c"},
		{"unknown tag", `a \unknown{x} b`, nil, `a \unknown{x} b`},
		{"unknown with handlers", `a \unknown{x} b`, []Handler{bold()}, `a \unknown{x} b`},
		{"multiple args", `\note{1}{2}{3}`, []Handler{note()}, "1|2|3"},
		{"no args", `x\note y`, []Handler{note()}, "x y"},
		{"separated group is text", `\note {a}`, []Handler{note()}, " {a}"},
		{"unbalanced is literal", `\note{open`, []Handler{note()}, `\note{open`},
		{"unbalanced second group", `\note{a}{b`, []Handler{note()}, `\note{a}{b`},
		{"empty group", `\note{}`, []Handler{note()}, ""},
		{"multibyte", `ä\bold{ö}ü`, []Handler{bold()}, "ä<b>ö</b>ü"},
		{"trailing backslash", `end\`, []Handler{bold()}, `end\`},
		{"adjacent", `\bold{a}\bold{b}`, []Handler{bold()}, "<b>a</b><b>b</b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.input, tt.handlers))
		})
	}
}

func TestExpand_FirstRegisteredTagWins(t *testing.T) {
	b := Handler{Tag: "b", Render: func([]string) string { return "B" }}
	got := Expand(`\bold{x}`, []Handler{b, bold()})
	assert.Equal(t, "Bold{x}", got)

	got = Expand(`\bold{x}`, []Handler{bold(), b})
	assert.Equal(t, "<b>x</b>", got)
}

func TestExpand_OutputIsNotRescanned(t *testing.T) {
	echo := Handler{Tag: "echo", Render: func(args []string) string { return args[0] }}
	got := Expand(`\echo{\echo{x}}`, []Handler{echo})
	assert.Equal(t, `\echo{x}`, got)
}

func TestTemplateHandler(t *testing.T) {
	h, err := TemplateHandler("link", `<a href="{{index .Args 0}}">{{index .Args 1}}</a>`)
	require.NoError(t, err)

	got := Expand(`see \link{/about/}{About}`, []Handler{h})
	assert.Equal(t, `see <a href="/about/">About</a>`, got)

	assert.Empty(t, Expand(`\link{only-one}`, []Handler{h}))
}

func TestTemplateHandler_ParseError(t *testing.T) {
	_, err := TemplateHandler("bad", "{{ .Args ")
	require.Error(t, err)
}
