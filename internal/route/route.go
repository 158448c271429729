// Package route maps source paths to output paths.
//
// A Route is pure: it looks only at the three paths it is given and never
// touches the filesystem.
package route

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// IndexFile is the file name nice routes write to.
const IndexFile = "index.html"

// ErrOutsideRoot is returned when a source path is not under its source root.
var ErrOutsideRoot = errors.RouteError("source path is outside the source root").Build()

// Route computes the output path for source.
type Route interface {
	Route(source, sourceRoot, outputRoot string) (string, error)
}

// RouteFunc adapts a plain function to the Route interface.
type RouteFunc func(source, sourceRoot, outputRoot string) (string, error)

// Route calls f.
func (f RouteFunc) Route(source, sourceRoot, outputRoot string) (string, error) {
	return f(source, sourceRoot, outputRoot)
}

// Identity mirrors the source tree: outputRoot/rel(source).
var Identity Route = RouteFunc(func(source, sourceRoot, outputRoot string) (string, error) {
	rel, err := relative(source, sourceRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(outputRoot, rel), nil
})

// Nice turns dir/name.ext into dir/name/index.html.
var Nice Route = RouteFunc(func(source, sourceRoot, outputRoot string) (string, error) {
	return niceRoute(source, sourceRoot, outputRoot, func(stem string) string { return stem })
})

// Slug behaves like Nice with the stem passed through Slugify.
var Slug Route = RouteFunc(func(source, sourceRoot, outputRoot string) (string, error) {
	return niceRoute(source, sourceRoot, outputRoot, Slugify)
})

// Extension mirrors the source tree and replaces the file extension with ext.
// The leading dot of ext is optional.
func Extension(ext string) Route {
	ext = strings.TrimPrefix(ext, ".")
	return RouteFunc(func(source, sourceRoot, outputRoot string) (string, error) {
		rel, err := relative(source, sourceRoot)
		if err != nil {
			return "", err
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		if ext != "" {
			rel += "." + ext
		}
		return filepath.Join(outputRoot, rel), nil
	})
}

func niceRoute(source, sourceRoot, outputRoot string, stemFn func(string) string) (string, error) {
	rel, err := relative(source, sourceRoot)
	if err != nil {
		return "", err
	}
	base := filepath.Base(rel)
	stem := stemFn(strings.TrimSuffix(base, filepath.Ext(base)))
	return filepath.Join(outputRoot, filepath.Dir(rel), stem, IndexFile), nil
}

func relative(source, sourceRoot string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(sourceRoot), filepath.Clean(source))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot.
			WithContext("path", source).
			WithContext("root", sourceRoot)
	}
	return rel, nil
}

// Parse resolves a route by its configuration name:
// identity, nice, slug or ext:<extension>.
func Parse(name string) (Route, error) {
	switch n := strings.TrimSpace(name); {
	case n == "" || n == "identity":
		return Identity, nil
	case n == "nice":
		return Nice, nil
	case n == "slug":
		return Slug, nil
	case strings.HasPrefix(n, "ext:"):
		ext := strings.TrimPrefix(n, "ext:")
		if strings.Trim(ext, ".") == "" {
			return nil, errors.ConfigError("extension route needs an extension").
				WithContext("route", name).
				Build()
		}
		return Extension(ext), nil
	default:
		return nil, errors.ConfigError("unknown route").
			WithContext("route", name).
			Build()
	}
}
