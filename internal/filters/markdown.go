package filters

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// MarkdownOptions configures the markdown converter.
type MarkdownOptions struct {
	// Unsafe passes raw HTML in the source through to the output.
	Unsafe      bool `yaml:"unsafe" toml:"unsafe"`
	Typographer bool `yaml:"typographer" toml:"typographer"`
	HardWraps   bool `yaml:"hard_wraps" toml:"hard_wraps"`
}

// Markdown converts CommonMark (with GFM extensions) to HTML.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown builds a converter for opts.
func NewMarkdown(opts MarkdownOptions) *Markdown {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}

	var rendererOpts []renderer.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}

	return &Markdown{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// Name implements Namer.
func (m *Markdown) Name() string { return "markdown" }

// Convert renders src as HTML.
func (m *Markdown) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", errors.ConversionError("markdown conversion failed").
			WithCause(err).
			Build()
	}
	return buf.String(), nil
}

// Apply implements Filter.
func (m *Markdown) Apply(doc *docmodel.Document) (*docmodel.Document, error) {
	html, err := m.Convert(doc.Content)
	if err != nil {
		return nil, err
	}
	out := *doc
	out.Content = html
	return &out, nil
}
