package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// Root is the directory served at /.
	Root       string
	LiveReload bool
	// Registry backs /metrics. Nil serves the default Prometheus registry.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Server serves the output root with optional live reload.
type Server struct {
	opts    Options
	hub     *Hub
	logger  *slog.Logger
	adapter *errors.HTTPErrorAdapter
	handler http.Handler
	httpSrv *http.Server
}

// New creates a server. hub may be nil when live reload is disabled.
func New(opts Options, hub *Hub) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		opts.LiveReload = false
	}
	s := &Server{
		opts:    opts,
		hub:     hub,
		logger:  logger,
		adapter: errors.NewHTTPErrorAdapter(logger),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	var files http.Handler = http.HandlerFunc(s.serveFile)
	if s.opts.LiveReload {
		files = injectLiveReload(files)
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(Script))
		})
	}
	mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/", files)

	return chain(s.logger, s.adapter, mux)
}

// serveFile serves a file below Root. Directories resolve to their index.html.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.opts.Root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, route.IndexFile)
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(ln) }()
	s.logger.Info("Serving site",
		logfields.URL("http://"+ln.Addr().String()+"/"),
		slog.Bool("live_reload", s.opts.LiveReload))

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.RuntimeError("http server failed").WithCause(err).Build()
		}
		return nil
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.RuntimeError("http server shutdown failed").WithCause(err).Build()
	}
	return nil
}

// ListenAndServe listens on Options.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr())
	if err != nil {
		return errors.RuntimeError("failed to listen").
			WithCause(err).
			WithContext("addr", s.opts.Addr()).
			Build()
	}
	return s.Serve(ctx, ln)
}
