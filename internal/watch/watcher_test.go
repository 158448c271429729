package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	reqs []Request
}

func (s *recordingSubmitter) Submit(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return nil
}

func (s *recordingSubmitter) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reqs))
	for _, r := range s.reqs {
		out = append(out, r.Path)
	}
	return out
}

func TestWatcher_SubmitsOnChange(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w, err := NewWatcher(sub, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	target := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))

	require.Eventually(t, func() bool {
		for _, p := range sub.paths() {
			if p == target {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w, err := NewWatcher(sub, root)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	dir := filepath.Join(root, "posts")
	require.NoError(t, os.Mkdir(dir, 0o750))
	require.Eventually(t, func() bool {
		for _, d := range w.WatchList() {
			if d == dir {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	target := filepath.Join(dir, "new.md")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
	require.Eventually(t, func() bool {
		for _, p := range sub.paths() {
			if p == target {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOutputAndHiddenFiles(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "public")
	require.NoError(t, os.Mkdir(out, 0o750))

	sub := &recordingSubmitter{}
	w, err := NewWatcher(sub, root)
	require.NoError(t, err)
	w.Ignore(out)
	defer func() { _ = w.Close() }()

	assert.True(t, w.isIgnored(filepath.Join(out, "index.html")))
	assert.False(t, w.isIgnored(filepath.Join(root, "public.md")))
	assert.True(t, shouldIgnoreEvent(filepath.Join(root, ".a.md.swp")))
	assert.True(t, shouldIgnoreEvent(filepath.Join(root, "a.md~")))
	assert.False(t, shouldIgnoreEvent(filepath.Join(root, "a.md")))
}

func TestWatcher_HistoryDatabaseBesideSiteFile(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "posts"), 0o750))
	db := filepath.Join(dir, "history.db")

	w, err := NewWatcher(&recordingSubmitter{}, dir)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	w.Ignore(filepath.Join(dir, "public"), db, db+"-wal", db+"-shm", db+"-journal", "")

	assert.False(t, w.isIgnored(filepath.Join(content, "posts", "a.md")))
	assert.False(t, w.isIgnored(filepath.Join(dir, "site.yaml")))
	assert.True(t, w.isIgnored(db))
	assert.True(t, w.isIgnored(db+"-wal"))
	assert.True(t, w.isIgnored(filepath.Join(dir, "public", "index.html")))
}

func TestNewWatcher_SkipsMissingRoots(t *testing.T) {
	w, err := NewWatcher(&recordingSubmitter{}, filepath.Join(t.TempDir(), "missing"), "")
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	assert.Empty(t, w.WatchList())
}
