package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/assembly"
	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Clean bool `help:"Remove the output directory before building"`

	out io.Writer
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	builder := assembly.NewBuilder(cfg).WithLogger(g.Logger)

	if b.Clean {
		if err := builder.Clean(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	report, buildErr := builder.Build(ctx)

	store, _, err := openHistory(cfg)
	if err != nil {
		g.Logger.Warn("Build history unavailable", logfields.Error(err))
	} else if store != nil {
		defer func() { _ = store.Close() }()
		rec := eventstore.NewBuildRecorder(store, nil)
		if err := rec.Record(ctx, string(watch.TriggerManual), "", report, buildErr); err != nil {
			g.Logger.Warn("Failed to record build", logfields.Error(err))
		}
	}

	if buildErr != nil {
		return buildErr
	}
	printReport(b.writer(), report)
	return nil
}

func (b *BuildCmd) writer() io.Writer {
	if b.out != nil {
		return b.out
	}
	return os.Stdout
}

func printReport(w io.Writer, r *build.Report) {
	_, _ = fmt.Fprintf(w, "Built %d documents and copied %d files in %s", r.Documents, r.Copied, r.Duration.Round(time.Millisecond))
	if r.Warnings > 0 {
		_, _ = fmt.Fprintf(w, " (%d warnings)", r.Warnings)
	}
	_, _ = fmt.Fprintln(w)
}
