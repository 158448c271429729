package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Trigger names what caused a rebuild request.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

const defaultQueueSize = 256

// ErrStopped is returned by Submit once the rebuilder's worker has exited.
var ErrStopped = errors.RuntimeError("rebuilder is stopped").Build()

// Request asks for one rebuild.
type Request struct {
	Trigger Trigger
	// Path is the changed file for watch triggers.
	Path     string
	Enqueued time.Time
}

// Result is what observers receive after each build.
type Result struct {
	Request Request
	Report  *build.Report
	Err     error
}

// Builder runs one full build.
type Builder interface {
	Build(ctx context.Context) (*build.Report, error)
}

// Observer is notified after every build, successful or not.
type Observer interface {
	BuildFinished(ctx context.Context, res Result)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, res Result)

// BuildFinished calls f.
func (f ObserverFunc) BuildFinished(ctx context.Context, res Result) { f(ctx, res) }

// Rebuilder serializes builds of a single Builder.
type Rebuilder struct {
	builder   Builder
	requests  chan Request
	done      chan struct{}
	observers []Observer
	recorder  metrics.Recorder
	logger    *slog.Logger

	startOnce sync.Once
}

// NewRebuilder returns a rebuilder for b. Call Start before Submit.
func NewRebuilder(b Builder) *Rebuilder {
	return &Rebuilder{
		builder:  b,
		requests: make(chan Request, defaultQueueSize),
		done:     make(chan struct{}),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
}

// WithObserver appends an observer. Observers run on the worker in the order added.
func (r *Rebuilder) WithObserver(o Observer) *Rebuilder {
	r.observers = append(r.observers, o)
	return r
}

// WithRecorder sets the metrics recorder.
func (r *Rebuilder) WithRecorder(rec metrics.Recorder) *Rebuilder {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithLogger sets the logger.
func (r *Rebuilder) WithLogger(l *slog.Logger) *Rebuilder {
	if l != nil {
		r.logger = l
	}
	return r
}

// Start launches the worker. It stops when ctx is canceled, after finishing
// the build in progress; queued requests are dropped.
func (r *Rebuilder) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.worker(ctx)
	})
}

// Done is closed when the worker has exited.
func (r *Rebuilder) Done() <-chan struct{} { return r.done }

// Submit queues a request, blocking while the queue is full.
func (r *Rebuilder) Submit(ctx context.Context, req Request) error {
	if req.Enqueued.IsZero() {
		req.Enqueued = time.Now()
	}
	r.recorder.IncRebuildRequest(string(req.Trigger))

	select {
	case <-r.done:
		return ErrStopped
	default:
	}

	select {
	case r.requests <- req:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued requests.
func (r *Rebuilder) Pending() int { return len(r.requests) }

func (r *Rebuilder) worker(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.requests:
			r.run(ctx, req)
		}
	}
}

func (r *Rebuilder) run(ctx context.Context, req Request) {
	r.logger.Info("Rebuilding site",
		slog.String("trigger", string(req.Trigger)),
		logfields.Path(req.Path),
		slog.Duration("queued", time.Since(req.Enqueued)))

	// A started build is not interrupted by shutdown.
	buildCtx := context.WithoutCancel(ctx)
	report, err := r.builder.Build(buildCtx)
	if err != nil {
		r.logger.Warn("Rebuild failed; waiting for the next change", logfields.Error(err))
	}

	res := Result{Request: req, Report: report, Err: err}
	for _, o := range r.observers {
		o.BuildFinished(buildCtx, res)
	}
}
