package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitebuilder/internal/assembly"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/server"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

const natsConnectTimeout = 2 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         int  `short:"p" help:"Port to listen on (overrides serve.port)"`
	NoLiveReload bool `name:"no-live-reload" help:"Disable live reload script injection and events"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}
	liveReload := cfg.Serve.LiveReloadEnabled() && !s.NoLiveReload

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return serve(ctx, cfg, liveReload, g.Logger)
}

// serve runs the rebuild loop and preview server until ctx is canceled.
func serve(parent context.Context, cfg *config.Config, liveReload bool, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	builder := assembly.NewBuilder(cfg).WithLogger(logger).WithRecorder(recorder)
	rebuilder := watch.NewRebuilder(builder).WithLogger(logger).WithRecorder(recorder)

	var hub *server.Hub
	if liveReload {
		hub = server.NewHub().WithLogger(logger).WithRecorder(recorder)
		rebuilder.WithObserver(hub)
	}

	store, projection, err := openHistory(cfg)
	if err != nil {
		logger.Warn("Build history unavailable", logfields.Error(err))
	} else if store != nil {
		defer func() { _ = store.Close() }()
		if err := projection.Rebuild(ctx); err != nil {
			logger.Warn("Failed to load build history", logfields.Error(err))
		}
		rec := eventstore.NewBuildRecorder(store, projection)
		rebuilder.WithObserver(watch.ObserverFunc(func(ctx context.Context, res watch.Result) {
			if err := rec.Record(ctx, string(res.Request.Trigger), res.Request.Path, res.Report, res.Err); err != nil {
				logger.Warn("Failed to record build", logfields.Error(err))
			}
		}))
	}

	publisher, err := notify.New(ctx, notify.Config{
		URL:     cfg.Notify.NATSURL,
		Subject: cfg.Notify.Subject,
		Timeout: natsConnectTimeout,
		Retry:   retry.NewPolicy(retry.ModeExponential, 500*time.Millisecond, 5*time.Second, 3),
	})
	if err != nil {
		logger.Warn("Build notifications disabled", logfields.Error(err))
	} else {
		publisher.WithLogger(logger)
		defer func() { _ = publisher.Close() }()
		rebuilder.WithObserver(publisher)
	}

	rebuilder.Start(ctx)
	if err := rebuilder.Submit(ctx, watch.Request{Trigger: watch.TriggerStartup}); err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(rebuilder, cfg.Source, cfg.Templates)
	if err != nil {
		return err
	}
	watcher.Ignore(cfg.Output).Ignore(eventstore.DatabaseFiles(cfg.History.Path)...).WithLogger(logger)
	defer func() { _ = watcher.Close() }()
	go func() { _ = watcher.Run(ctx) }()

	if err := startScheduler(ctx, cfg.Serve, rebuilder, logger); err != nil {
		return err
	}

	srv := server.New(server.Options{
		Host:       cfg.Serve.Host,
		Port:       cfg.Serve.Port,
		Root:       cfg.Output,
		LiveReload: liveReload,
		Registry:   reg,
		Logger:     logger,
	}, hub)
	err = srv.ListenAndServe(ctx)

	cancel()
	<-rebuilder.Done()
	return err
}

func startScheduler(ctx context.Context, sc config.ServeConfig, submit watch.Submitter, logger *slog.Logger) error {
	interval, err := sc.Interval()
	if err != nil {
		return err
	}
	if interval == 0 && sc.RebuildCron == "" {
		return nil
	}

	sched, err := watch.NewScheduler(submit)
	if err != nil {
		return err
	}
	sched.WithLogger(logger)
	if interval > 0 {
		if _, err := sched.ScheduleEvery("interval", interval); err != nil {
			_ = sched.Stop()
			return err
		}
	}
	if sc.RebuildCron != "" {
		if _, err := sched.ScheduleCron("cron", sc.RebuildCron); err != nil {
			_ = sched.Stop()
			return err
		}
	}
	sched.Start(ctx)
	go func() {
		<-ctx.Done()
		if err := sched.Stop(); err != nil {
			logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()
	return nil
}
