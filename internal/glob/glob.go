// Package glob selects files under a root directory with doublestar patterns.
package glob

import (
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ErrInvalidPattern is returned for patterns doublestar cannot compile.
var ErrInvalidPattern = errors.PatternError("invalid glob pattern").Build()

// Validate checks that pattern is a usable, root-relative glob.
func Validate(pattern string) error {
	if pattern == "" || path.IsAbs(pattern) || !doublestar.ValidatePattern(pattern) {
		return ErrInvalidPattern.WithContext("pattern", pattern)
	}
	return nil
}

// Files returns the regular files under root matched by any of patterns, in
// lexical order, each joined onto root. A file matched by several patterns is
// listed once. Patterns use forward slashes and are relative to root.
func Files(root string, patterns ...string) ([]string, error) {
	for _, p := range patterns {
		if err := Validate(p); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.FileSystemError("cannot read source root").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("source root is not a directory").
			WithContext("path", root).
			Build()
	}

	fsys := os.DirFS(root)
	seen := map[string]struct{}{}
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, errors.FileSystemError("failed to expand pattern").
				WithCause(err).
				WithContext("pattern", p).
				WithContext("path", root).
				Build()
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	slices.Sort(out)
	for i, m := range out {
		out[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	return out, nil
}

// Match reports whether the slash-separated relative path name matches pattern.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, filepath.ToSlash(name))
	return err == nil && ok
}
