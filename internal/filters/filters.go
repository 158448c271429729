// Package filters provides the content transformations a rule applies to each
// document, in order, after its body has been rendered as a template.
package filters

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/shortcode"
)

// Filter transforms a document. Returning an error aborts the build.
type Filter interface {
	Apply(doc *docmodel.Document) (*docmodel.Document, error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(doc *docmodel.Document) (*docmodel.Document, error)

// Apply calls f.
func (f FilterFunc) Apply(doc *docmodel.Document) (*docmodel.Document, error) {
	return f(doc)
}

// Namer is implemented by filters that report a name for logs and errors.
type Namer interface {
	Name() string
}

// NameOf returns the filter's name, or "anonymous".
func NameOf(f Filter) string {
	if n, ok := f.(Namer); ok {
		return n.Name()
	}
	return "anonymous"
}

type named struct {
	name string
	fn   func(doc *docmodel.Document) (*docmodel.Document, error)
}

func (n named) Apply(doc *docmodel.Document) (*docmodel.Document, error) { return n.fn(doc) }
func (n named) Name() string                                             { return n.name }

// Named attaches a name to fn.
func Named(name string, fn FilterFunc) Filter {
	return named{name: name, fn: fn}
}

func mapContent(name string, fn func(string) string) Filter {
	return Named(name, func(doc *docmodel.Document) (*docmodel.Document, error) {
		out := *doc
		out.Content = fn(doc.Content)
		return &out, nil
	})
}

// Upper upper-cases the document content.
var Upper = mapContent("upper", strings.ToUpper)

// Lower lower-cases the document content.
var Lower = mapContent("lower", strings.ToLower)

// Shortcodes expands shortcodes in the document content.
func Shortcodes(handlers []shortcode.Handler) Filter {
	return mapContent("shortcodes", func(s string) string {
		return shortcode.Expand(s, handlers)
	})
}
