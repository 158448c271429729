// Package docmodel defines the document, variable and mined-data types shared by
// the build engine and the miner.
package docmodel

import (
	"maps"
	"os"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// ContentKey is the reserved context key holding a document's converted body
// when its wrapping template renders.
const ContentKey = "content"

// Variables is a string-keyed bag of template values.
type Variables map[string]any

// Data maps absolute source paths to the variables mined from them.
type Data map[string]Variables

// Document is one source file and its parsed metadata.
type Document struct {
	Path     string
	Content  string
	Metadata Variables
	// Raw, when non-nil, is a binary payload written instead of Content.
	Raw []byte
}

// Parse builds a Document for path from raw text.
//
// The returned warning is non-nil when the header could not be decoded; the
// document is still complete, with empty metadata.
func Parse(path, raw string) (doc *Document, warning error) {
	m, warning := frontmatter.Parse(raw)
	if warning != nil {
		warning = errors.WrapError(warning, errors.CategoryMetadata, "ignoring malformed front matter").
			Warning().
			WithContext("path", path).
			Build()
	}
	return &Document{
		Path:     path,
		Content:  m.Body,
		Metadata: Variables(m.Metadata),
	}, warning
}

// Load reads path from disk and parses it.
func Load(path string) (doc *Document, warning error, err error) {
	// #nosec G304 -- paths come from glob matches under the configured source root.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.FileSystemError("failed to read document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	doc, warning = Parse(path, string(content))
	return doc, warning, nil
}

// Bytes returns the payload to write for the document.
func (d *Document) Bytes() []byte {
	if d.Raw != nil {
		return d.Raw
	}
	return []byte(d.Content)
}

// Clone returns a shallow copy of v. A nil v yields an empty, non-nil map.
func (v Variables) Clone() Variables {
	out := make(Variables, len(v))
	maps.Copy(out, v)
	return out
}

// Layer merges layers into a new map, later layers overriding earlier ones.
func Layer(layers ...Variables) Variables {
	out := Variables{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

// Paths returns the keys of d in lexical order.
func (d Data) Paths() []string {
	return slices.Sorted(maps.Keys(d))
}

// Merge folds extra into the entry for path, creating it when needed.
func (d Data) Merge(path string, extra Variables) {
	cur, ok := d[path]
	if !ok {
		cur = Variables{}
		d[path] = cur
	}
	maps.Copy(cur, extra)
}
