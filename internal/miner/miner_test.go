package miner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestMine_KeysByAbsolutePath(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "posts/a.md", "---\ntitle: A\n---\nAlpha")
	b := writeFile(t, root, "posts/b.md", "---\ntitle: B\n---\nBeta")
	writeFile(t, root, "pages/c.md", "not mined")

	data, err := New("posts/*.md").Extract(Metadata(), Path()).Mine(root)
	require.NoError(t, err)
	require.Len(t, data, 2)
	require.Equal(t, []string{a, b}, data.Paths())
	for _, p := range data.Paths() {
		assert.True(t, filepath.IsAbs(p))
	}
	assert.Equal(t, docmodel.Variables{"title": "A", "path": "posts/a.md"}, data[a])
}

func TestMine_RelativeRootYieldsAbsoluteKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "x")
	t.Chdir(root)

	data, err := New("*.md").Extract(Path()).Mine(".")
	require.NoError(t, err)
	want, err := filepath.Abs("a.md")
	require.NoError(t, err)
	require.Contains(t, data, want)
}

func TestMine_LaterExtractorWins(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "a.md", "---\ntitle: Original\n---\nbody")

	override := ExtractorFunc(func(*docmodel.Document, string) (docmodel.Variables, error) {
		return docmodel.Variables{"title": "Override"}, nil
	})

	data, err := New("*.md").Extract(Metadata(), override).Mine(root)
	require.NoError(t, err)
	assert.Equal(t, "Override", data[p]["title"])

	data, err = New("*.md").Extract(override, Metadata()).Mine(root)
	require.NoError(t, err)
	assert.Equal(t, "Original", data[p]["title"])
}

func TestMine_IsReadOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\ntitle: A\n---\nbody")
	before, err := os.ReadDir(root)
	require.NoError(t, err)

	_, err = New("**/*").Extract(Metadata(), Fingerprint(), Summary(10, nil)).Mine(root)
	require.NoError(t, err)

	after, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, after, len(before))
}

func TestMine_ExtractorErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "x")
	boom := errors.New("boom")

	_, err := New("*.md").Extract(ExtractorFunc(func(*docmodel.Document, string) (docmodel.Variables, error) {
		return nil, boom
	})).Mine(root)
	require.ErrorIs(t, err, boom)
}

func TestMine_MalformedFrontMatterStillMined(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "a.md", "---\ntitle: [oops\n---\nbody")

	data, err := New("*.md").Extract(Metadata(), Path()).Mine(root)
	require.NoError(t, err)
	assert.Equal(t, docmodel.Variables{"path": "a.md"}, data[p])
}

func TestURLExtractor(t *testing.T) {
	root := t.TempDir()
	doc := &docmodel.Document{Path: filepath.Join(root, "posts", "hello.md")}

	vars, err := URL(route.Nice).Extract(doc, root)
	require.NoError(t, err)
	assert.Equal(t, "/posts/hello/", vars[KeyURL])

	vars, err = URL(route.Extension("html")).Extract(doc, root)
	require.NoError(t, err)
	assert.Equal(t, "/posts/hello.html", vars[KeyURL])
}

func TestSummaryExtractor(t *testing.T) {
	doc := &docmodel.Document{Content: "# Title\n\nSome *emphasised* text &amp; more.\n\n```go\ncode()\n```\n"}

	vars, err := Summary(0, nil).Extract(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "Title Some emphasised text & more.", vars[KeySummary])

	vars, err = Summary(10, nil).Extract(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "Title Some…", vars[KeySummary])
}

func TestFingerprintExtractor(t *testing.T) {
	a := &docmodel.Document{Content: "body", Metadata: docmodel.Variables{"title": "T", "lastmod": "2024-01-01"}}
	b := &docmodel.Document{Content: "body", Metadata: docmodel.Variables{"title": "T", "lastmod": "2025-06-01"}}
	c := &docmodel.Document{Content: "other", Metadata: docmodel.Variables{"title": "T"}}

	fa, err := Fingerprint().Extract(a, "")
	require.NoError(t, err)
	fb, err := Fingerprint().Extract(b, "")
	require.NoError(t, err)
	fc, err := Fingerprint().Extract(c, "")
	require.NoError(t, err)

	require.NotEmpty(t, fa[KeyFingerprint])
	assert.Equal(t, fa[KeyFingerprint], fb[KeyFingerprint])
	assert.NotEqual(t, fa[KeyFingerprint], fc[KeyFingerprint])
}
