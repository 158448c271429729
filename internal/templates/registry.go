// Package templates holds the named templates a build renders with.
//
// Templates use text/template syntax and fail on missing keys, so a typo in a
// variable name is a build error rather than an empty string.
package templates

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/glob"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

// ErrNotFound is returned when rendering a name that was never added.
var ErrNotFound = errors.TemplateError("template not found").Build()

// Registry maps template names to parsed templates. All templates in a
// registry can include each other with {{template "name" .}}.
//
// A Registry is not safe for concurrent use; each build works on its own Clone.
type Registry struct {
	root *template.Template
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: newRoot()}
}

func newRoot() *template.Template {
	return template.New("").Funcs(FuncMap()).Option("missingkey=error")
}

// FuncMap returns the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"slugify": route.Slugify,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
	}
}

// Add parses source and registers it under name, replacing any previous
// template of that name.
func (r *Registry) Add(name, source string) error {
	if _, err := r.root.New(name).Option("missingkey=error").Parse(source); err != nil {
		return errors.TemplateError("failed to parse template").
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return name != "" && r.root.Lookup(name) != nil
}

// Render executes the template registered under name with ctx.
func (r *Registry) Render(name string, ctx map[string]any) (string, error) {
	if !r.Has(name) {
		return "", ErrNotFound.WithContext("template", name)
	}

	var buf bytes.Buffer
	if err := r.root.ExecuteTemplate(&buf, name, ctx); err != nil {
		return "", errors.TemplateError("failed to render template").
			WithCause(err).
			WithContext("template", name).
			Build()
	}
	return buf.String(), nil
}

// LoadDir registers every *.html file below dir under its base file name.
// When two files share a base name the lexically later path wins.
func (r *Registry) LoadDir(dir string) error {
	files, err := glob.Files(dir, "**/*.html")
	if err != nil {
		return err
	}
	for _, f := range files {
		src, err := readFile(f)
		if err != nil {
			return err
		}
		if err := r.Add(filepath.Base(f), src); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy. Templates added to the copy are not
// visible in r.
func (r *Registry) Clone() *Registry {
	c, err := r.root.Clone()
	if err != nil {
		// Clone only fails after html/template escaping, which never applies here.
		return &Registry{root: newRoot()}
	}
	// Clone does not carry options over.
	for _, t := range c.Templates() {
		t.Option("missingkey=error")
	}
	c.Option("missingkey=error")
	return &Registry{root: c}
}

// Names lists the registered template names.
func (r *Registry) Names() []string {
	var names []string
	for _, t := range r.root.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	return names
}
