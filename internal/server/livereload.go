package server

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

const heartbeatInterval = 30 * time.Second

// event is one message pushed to live reload clients.
type event struct {
	Name string
	Data string
}

// Hub manages SSE clients and tells them when a new build is available.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*client
	closed    bool
	lastBuild string
	recorder  metrics.Recorder
	logger    *slog.Logger
	heartbeat time.Duration
}

type client struct {
	id   int
	ch   chan event
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:   map[int]*client{},
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		heartbeat: heartbeatInterval,
	}
}

// WithRecorder sets the metrics recorder.
func (h *Hub) WithRecorder(r metrics.Recorder) *Hub {
	if r != nil {
		h.recorder = r
	}
	return h
}

// WithLogger sets the logger.
func (h *Hub) WithLogger(l *slog.Logger) *Hub {
	if l != nil {
		h.logger = l
	}
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{ch: make(chan event, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	current := h.lastBuild
	count := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLiveReloadClients(count)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	send := func(lines string) bool {
		if _, err := bw.WriteString(lines); err != nil {
			h.logger.Debug("livereload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	initial := ": connected\n\n"
	if current != "" {
		initial += formatEvent(reloadEvent(current))
	}
	if !send(initial) {
		h.removeClient(c.id)
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.removeClient(c.id)
			return
		case <-c.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				h.removeClient(c.id)
				return
			}
		case ev := <-c.ch:
			if !send(formatEvent(ev)) {
				h.removeClient(c.id)
				return
			}
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetLiveReloadClients(count)
	}
}

// Reload tells every client that buildID is the current build.
// Repeating the current build ID is a no-op.
func (h *Hub) Reload(buildID string) {
	h.mu.Lock()
	if h.closed || buildID == "" || buildID == h.lastBuild {
		h.mu.Unlock()
		return
	}
	h.lastBuild = buildID
	h.mu.Unlock()
	h.broadcast(reloadEvent(buildID))
}

// Error pushes a build failure message to every client.
func (h *Hub) Error(message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	h.broadcast(event{Name: "build-error", Data: string(data)})
}

func (h *Hub) broadcast(ev event) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- ev:
		default:
			// Slow client; it reconnects and picks up the current build.
			dropped++
			h.removeClient(c.id)
		}
	}
	h.logger.Debug("livereload broadcast",
		logfields.Event(ev.Name),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
}

// BuildFinished implements watch.Observer.
func (h *Hub) BuildFinished(_ context.Context, res watch.Result) {
	if res.Err != nil {
		h.Error(res.Err.Error())
		return
	}
	if res.Report != nil {
		h.Reload(res.Report.BuildID)
	}
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}

func reloadEvent(buildID string) event {
	data, _ := json.Marshal(map[string]string{"build": buildID})
	return event{Name: "reload", Data: string(data)}
}

func formatEvent(ev event) string {
	return "event: " + ev.Name + "\ndata: " + ev.Data + "\n\n"
}

// Script is the client served at /livereload.js.
const Script = `(() => {
  if (window.__SITEBUILDER_LR__) return;
  window.__SITEBUILDER_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.addEventListener('reload', (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.build; return; }
        if (p.build && p.build !== current) { location.reload(); }
      } catch (_) {}
    });
    es.addEventListener('build-error', (e) => {
      try { console.error('[sitebuilder] build failed: ' + JSON.parse(e.data).error); } catch (_) {}
    });
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`
