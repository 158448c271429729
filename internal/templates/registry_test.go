package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestRegistry_AddAndRender(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("page.html", "<h1>{{.title}}</h1>{{.content}}"))

	out, err := r.Render("page.html", map[string]any{"title": "Hi", "content": "<p>x</p>"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1><p>x</p>", out)
}

func TestRegistry_MissingKeyIsError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("t", "{{.site_name}}"))

	_, err := r.Render("t", map[string]any{})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRegistry_MissingKeyIsErrorThroughClone(t *testing.T) {
	base := NewRegistry()
	require.NoError(t, base.Add("page.html", "<h1>{{.titel}}</h1>"))

	c := base.Clone()
	require.NoError(t, c.Add("body", "hi {{.nobody}}"))

	out, err := c.Render("body", map[string]any{"title": "x"})
	require.Error(t, err, "rendered %q", out)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))

	_, err = c.Render("page.html", map[string]any{"title": "x"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRegistry_UnknownName(t *testing.T) {
	_, err := NewRegistry().Render("nope.html", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ParseError(t *testing.T) {
	err := NewRegistry().Add("bad", "{{ .x ")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRegistry_Funcs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("f", `{{slugify .t}} {{upper .t}} {{lower .t}}`))
	out, err := r.Render("f", map[string]any{"t": "Héllo World"})
	require.NoError(t, err)
	require.Equal(t, "hello-world HÉLLO WORLD héllo world", out)
}

func TestRegistry_IncludesOtherTemplates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add("header.html", "<header>{{.site}}</header>"))
	require.NoError(t, r.Add("page.html", `{{template "header.html" .}}{{.content}}`))

	out, err := r.Render("page.html", map[string]any{"site": "S", "content": "C"})
	require.NoError(t, err)
	require.Equal(t, "<header>S</header>C", out)
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	base := NewRegistry()
	require.NoError(t, base.Add("page.html", "{{.content}}"))

	c := base.Clone()
	require.True(t, c.Has("page.html"))
	require.NoError(t, c.Add("posts/a.md", "body"))
	require.NoError(t, c.Add("page.html", "changed"))

	require.False(t, base.Has("posts/a.md"))
	out, err := base.Render("page.html", map[string]any{"content": "x"})
	require.NoError(t, err)
	require.Equal(t, "x", out)
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.html"), []byte("P{{.content}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partials", "nav.html"), []byte("N"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))
	require.True(t, r.Has("post.html"))
	require.True(t, r.Has("nav.html"))
	require.False(t, r.Has("notes.txt"))
	require.ElementsMatch(t, []string{"post.html", "nav.html"}, r.Names())
}
