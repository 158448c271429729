package docmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestLoad_SplitsFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Hello\n---\n\nBody\n"), 0o600))

	doc, warning, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, warning)
	require.Equal(t, path, doc.Path)
	require.Equal(t, "Body", doc.Content)
	require.Equal(t, Variables{"title": "Hello"}, doc.Metadata)
	require.Nil(t, doc.Raw)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestParse_MalformedHeaderIsWarning(t *testing.T) {
	doc, warning := Parse("x.md", "---\ntitle: [unclosed\n---\nbody")
	require.Error(t, warning)
	require.True(t, errors.HasCategory(warning, errors.CategoryMetadata))
	require.True(t, errors.HasSeverity(warning, errors.SeverityWarning))
	require.Empty(t, doc.Metadata)
	require.Equal(t, "body", doc.Content)
}

func TestDocument_Bytes_PrefersRaw(t *testing.T) {
	d := &Document{Content: "text"}
	require.Equal(t, []byte("text"), d.Bytes())
	d.Raw = []byte{0x00, 0x01}
	require.Equal(t, []byte{0x00, 0x01}, d.Bytes())
}

func TestLayer_LaterWins(t *testing.T) {
	static := Variables{"layout": "default", "site": "S"}
	meta := Variables{"layout": "post", "title": "T"}

	got := Layer(static, meta, Variables{ContentKey: "<p>x</p>"})
	require.Equal(t, Variables{
		"layout":   "post",
		"site":     "S",
		"title":    "T",
		ContentKey: "<p>x</p>",
	}, got)
	require.Equal(t, "default", static["layout"], "inputs are not mutated")
}

func TestVariables_CloneNil(t *testing.T) {
	var v Variables
	c := v.Clone()
	require.NotNil(t, c)
	require.Empty(t, c)
}

func TestData_MergeAndPaths(t *testing.T) {
	d := Data{}
	d.Merge("/b", Variables{"x": 1})
	d.Merge("/a", Variables{"x": 1})
	d.Merge("/a", Variables{"x": 2, "y": 3})

	require.Equal(t, []string{"/a", "/b"}, d.Paths())
	require.Equal(t, Variables{"x": 2, "y": 3}, d["/a"])
}
