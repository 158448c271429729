// Package shortcode expands inline macros of the form \tag{arg}{arg} in text.
package shortcode

import (
	"strings"
	"text/template"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Handler renders one shortcode tag.
type Handler struct {
	Tag    string
	Render func(args []string) string
}

// Expand replaces every registered shortcode in input with its rendering.
//
// A shortcode is a backslash, a registered tag (the first handler whose tag
// prefixes the following text wins) and zero or more directly abutting brace
// groups. Braces nest inside a group. Text that does not form a complete
// shortcode is copied through unchanged. Rendered output is not rescanned.
func Expand(input string, handlers []Handler) string {
	if len(handlers) == 0 || !strings.ContainsRune(input, '\\') {
		return input
	}

	in := []rune(input)
	var out strings.Builder
	out.Grow(len(input))

	for i := 0; i < len(in); {
		if in[i] == '\\' {
			if rendered, next, ok := expandAt(in, i, handlers); ok {
				out.WriteString(rendered)
				i = next
				continue
			}
		}
		out.WriteRune(in[i])
		i++
	}
	return out.String()
}

func expandAt(in []rune, start int, handlers []Handler) (string, int, bool) {
	h, ok := match(in[start+1:], handlers)
	if !ok {
		return "", 0, false
	}

	pos := start + 1 + len([]rune(h.Tag))
	args := []string{}
	for pos < len(in) && in[pos] == '{' {
		arg, next, ok := braced(in, pos)
		if !ok {
			return "", 0, false
		}
		args = append(args, arg)
		pos = next
	}
	return h.Render(args), pos, true
}

func match(rest []rune, handlers []Handler) (Handler, bool) {
	for _, h := range handlers {
		tag := []rune(h.Tag)
		if len(tag) == 0 || len(tag) > len(rest) {
			continue
		}
		if string(rest[:len(tag)]) == h.Tag {
			return h, true
		}
	}
	return Handler{}, false
}

// braced reads the group opening at in[start] and returns its inner text and
// the index just past the closing brace.
func braced(in []rune, start int) (string, int, bool) {
	depth := 0
	var content strings.Builder
	for i := start; i < len(in); i++ {
		switch c := in[i]; {
		case c == '{':
			depth++
			if depth > 1 {
				content.WriteRune(c)
			}
		case c == '}':
			depth--
			if depth == 0 {
				return content.String(), i + 1, true
			}
			content.WriteRune(c)
		default:
			content.WriteRune(c)
		}
	}
	return "", 0, false
}

// TemplateHandler builds a handler whose output is the text/template source
// executed with .Args bound to the shortcode arguments. Execution failures
// (an out-of-range index, for example) render as the empty string.
func TemplateHandler(tag, source string) (Handler, error) {
	tmpl, err := template.New(tag).Parse(source)
	if err != nil {
		return Handler{}, errors.TemplateError("invalid shortcode template").
			WithCause(err).
			WithContext("shortcode", tag).
			Build()
	}
	return Handler{
		Tag: tag,
		Render: func(args []string) string {
			var b strings.Builder
			if err := tmpl.Execute(&b, struct{ Args []string }{args}); err != nil {
				return ""
			}
			return b.String()
		},
	}, nil
}
