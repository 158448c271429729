// Package frontmatter splits source documents into a YAML metadata header and a body.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Delimiter opens and closes a metadata header.
const Delimiter = "---"

// ErrInvalidMetadata is returned (as a warning) when the header region is not a YAML mapping.
var ErrInvalidMetadata = errors.MetadataError("front matter is not a valid YAML mapping").Build()

// Matter is the result of splitting a document.
type Matter struct {
	Metadata map[string]any
	Body     string
	// HadHeader reports whether both delimiters were found.
	HadHeader bool
}

// Parse splits raw into metadata and body.
//
// A header exists only when raw starts with Delimiter and a second Delimiter
// occurs later in the text. Without one, the whole input is the body, unchanged.
// With one, the body is the text after the closing delimiter, trimmed of
// surrounding whitespace.
//
// A header that does not decode as a YAML mapping never fails the split: the
// returned Matter carries empty metadata and the computed body, and the error
// is a warning-severity ErrInvalidMetadata the caller is expected to log.
func Parse(raw string) (Matter, error) {
	rest, ok := strings.CutPrefix(raw, Delimiter)
	if !ok {
		return Matter{Metadata: map[string]any{}, Body: raw}, nil
	}
	end := strings.Index(rest, Delimiter)
	if end < 0 {
		return Matter{Metadata: map[string]any{}, Body: raw}, nil
	}

	m := Matter{
		Body:      strings.TrimSpace(rest[end+len(Delimiter):]),
		HadHeader: true,
	}
	fields, err := ParseYAML([]byte(rest[:end]))
	if err != nil {
		m.Metadata = map[string]any{}
		return m, ErrInvalidMetadata.WithContext("cause", err.Error())
	}
	m.Metadata = fields
	return m, nil
}

// ParseYAML parses a raw YAML header (without delimiters) into a map.
func ParseYAML(header []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(header))) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
