package miner

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/inful/mdfp"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/filters"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

// Variable names set by the built-in extractors.
const (
	KeyPath        = "path"
	KeyURL         = "url"
	KeySummary     = "summary"
	KeyFingerprint = mdfp.FingerprintField
)

// Metadata contributes the document's front matter.
func Metadata() Extractor {
	return ExtractorFunc(func(doc *docmodel.Document, _ string) (docmodel.Variables, error) {
		return doc.Metadata.Clone(), nil
	})
}

// Path contributes the slash-separated source path relative to the root.
func Path() Extractor {
	return ExtractorFunc(func(doc *docmodel.Document, root string) (docmodel.Variables, error) {
		rel, err := filepath.Rel(root, doc.Path)
		if err != nil {
			return nil, err
		}
		return docmodel.Variables{KeyPath: filepath.ToSlash(rel)}, nil
	})
}

// URL contributes the site-relative URL of the file r writes for the
// document. Directory index pages get a trailing slash URL.
func URL(r route.Route) Extractor {
	return ExtractorFunc(func(doc *docmodel.Document, root string) (docmodel.Variables, error) {
		out, err := r.Route(doc.Path, root, "")
		if err != nil {
			return nil, err
		}
		u := "/" + filepath.ToSlash(out)
		if strings.HasSuffix(u, "/"+route.IndexFile) {
			u = strings.TrimSuffix(u, route.IndexFile)
		}
		return docmodel.Variables{KeyURL: u}, nil
	})
}

// Fingerprint contributes a content hash of the metadata and body. The hash
// ignores fields that change without the content changing.
func Fingerprint() Extractor {
	return ExtractorFunc(func(doc *docmodel.Document, _ string) (docmodel.Variables, error) {
		fields := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			switch k {
			case mdfp.FingerprintField, "lastmod", "uid", "aliases":
				continue
			}
			fields[k] = v
		}
		header, err := frontmatter.Canonical(fields)
		if err != nil {
			return nil, err
		}
		return docmodel.Variables{
			KeyFingerprint: mdfp.CalculateFingerprintFromParts(header, doc.Content),
		}, nil
	})
}

// Summary contributes the first n characters of the document's visible text
// after markdown conversion, with whitespace collapsed.
func Summary(n int, md *filters.Markdown) Extractor {
	if md == nil {
		md = filters.NewMarkdown(filters.MarkdownOptions{})
	}
	return ExtractorFunc(func(doc *docmodel.Document, _ string) (docmodel.Variables, error) {
		rendered, err := md.Convert(doc.Content)
		if err != nil {
			return nil, err
		}
		return docmodel.Variables{KeySummary: truncate(visibleText(rendered), n)}, nil
	})
}

func visibleText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isHidden(name) {
				skip++
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHidden(name) && skip > 0 {
				skip--
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHidden(tag []byte) bool {
	switch string(tag) {
	case "script", "style", "pre":
		return true
	}
	return false
}

func isBlock(tag []byte) bool {
	switch string(tag) {
	case "p", "br", "div", "li", "ul", "ol", "blockquote", "table", "tr", "td", "th", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "…"
}
