package assembly

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Builder reassembles the site before every build so template and mined
// content changes are picked up. It satisfies watch.Builder.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
}

// WithRecorder sets the metrics recorder passed to each site.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// Build assembles and builds the site.
func (b *Builder) Build(ctx context.Context) (*build.Report, error) {
	site, err := Assemble(b.cfg, b.logger)
	if err != nil {
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return nil, err
	}
	return site.WithRecorder(b.recorder).Build(ctx)
}

// Clean removes the output root.
func (b *Builder) Clean() error {
	return build.NewSite(b.cfg.Source, b.cfg.Output).WithLogger(b.logger).Clean()
}
