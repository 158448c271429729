// Package miner runs a read-only pass over source documents and collects
// per-document variables that rules can later use as context (listings,
// indexes, feeds).
package miner

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/glob"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Extractor derives variables from one document. sourceRoot is the absolute
// root the document was found under.
type Extractor interface {
	Extract(doc *docmodel.Document, sourceRoot string) (docmodel.Variables, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(doc *docmodel.Document, sourceRoot string) (docmodel.Variables, error)

// Extract calls f.
func (f ExtractorFunc) Extract(doc *docmodel.Document, sourceRoot string) (docmodel.Variables, error) {
	return f(doc, sourceRoot)
}

// Miner selects documents by pattern and runs extractors over them.
type Miner struct {
	patterns   []string
	extractors []Extractor
	logger     *slog.Logger
}

// New returns a miner over the files matching patterns.
func New(patterns ...string) *Miner {
	return &Miner{patterns: patterns, logger: slog.Default()}
}

// Extract appends extractors. They run in the order given.
func (m *Miner) Extract(extractors ...Extractor) *Miner {
	m.extractors = append(m.extractors, extractors...)
	return m
}

// WithLogger sets the logger used for metadata warnings.
func (m *Miner) WithLogger(logger *slog.Logger) *Miner {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Mine loads every matching document under sourceRoot and returns the merged
// extractor output keyed by absolute source path. When two extractors set the
// same key the later one wins. Nothing is written.
func (m *Miner) Mine(sourceRoot string) (docmodel.Data, error) {
	root, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, errors.FileSystemError("cannot resolve source root").
			WithCause(err).
			WithContext("path", sourceRoot).
			Build()
	}

	files, err := glob.Files(root, m.patterns...)
	if err != nil {
		return nil, err
	}

	data := make(docmodel.Data, len(files))
	for _, path := range files {
		doc, warning, err := docmodel.Load(path)
		if err != nil {
			return nil, err
		}
		if warning != nil {
			m.logger.Warn("Malformed front matter, using empty metadata",
				logfields.Path(path), logfields.Error(warning))
		}

		data[path] = docmodel.Variables{}
		for _, ex := range m.extractors {
			out, err := ex.Extract(doc, root)
			if err != nil {
				return nil, errors.WrapError(err, errors.GetCategory(err), "extractor failed").
					WithContext("path", path).
					Build()
			}
			data.Merge(path, out)
		}
	}
	return data, nil
}
