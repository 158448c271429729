package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":             "<html><body><h1>Home</h1></body></html>",
		"posts/hello/index.html": "<html><body>Hello</body></html>",
		"css/site.css":           "body{}",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServeFile_IndexAndNotFound(t *testing.T) {
	root := writeSite(t)
	srv := New(Options{Root: root, Registry: prom.NewRegistry()}, nil)
	h := srv.Handler()

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Home</h1>")
	assert.NotContains(t, rec.Body.String(), "livereload.js")

	rec = get(t, h, "/posts/hello/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello")

	rec = get(t, h, "/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())

	rec = get(t, h, "/missing.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/css/")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/livereload.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeFile_RejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "public")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644))

	srv := New(Options{Root: root, Registry: prom.NewRegistry()}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	srv.serveFile(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeFile_MethodNotAllowed(t *testing.T) {
	srv := New(Options{Root: writeSite(t), Registry: prom.NewRegistry()}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLiveReload_InjectsScript(t *testing.T) {
	srv := New(Options{Root: writeSite(t), LiveReload: true, Registry: prom.NewRegistry()}, NewHub())
	h := srv.Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, scriptTag+"</body>")
	assert.Equal(t, len(body), int(rec.Result().ContentLength))

	rec = get(t, h, "/css/site.css")
	assert.Equal(t, "body{}", rec.Body.String())

	rec = get(t, h, "/livereload.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "EventSource('/livereload')")
}

func TestHealthzAndMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncRebuildRequest("manual")

	srv := New(Options{Root: writeSite(t), Registry: reg}, nil)
	h := srv.Handler()

	res := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok\n", res.Body.String())

	res = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "sitebuilder_rebuild_requests_total")
}

func TestRecoverPanics(t *testing.T) {
	h := chain(discardLogger(), ferrors.NewHTTPErrorAdapter(discardLogger()), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestHub_StreamsReloadAndErrors(t *testing.T) {
	hub := NewHub().WithLogger(discardLogger())
	ts := httptest.NewServer(hub)
	defer ts.Close()

	hub.Reload("first")

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	waitFor(t, lines, `data: {"build":"first"}`)

	hub.Reload("first")
	hub.BuildFinished(context.Background(), watch.Result{Report: &build.Report{BuildID: "second"}})
	waitFor(t, lines, `data: {"build":"second"}`)

	hub.BuildFinished(context.Background(), watch.Result{Err: ferrors.TemplateError("bad template").Build()})
	waitFor(t, lines, "event: build-error")

	hub.Shutdown()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	res, err := http.Get(ts.URL)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Options{Root: writeSite(t), Registry: prom.NewRegistry(), Logger: discardLogger()}, NewHub())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func waitFor(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", want)
			}
			if strings.Contains(line, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}
