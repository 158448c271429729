package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of builds to show" default:"10"`
	JSON  bool `help:"Print JSON instead of a table"`

	out io.Writer
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	store, projection, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.ConfigError("build history is disabled").WithContext("field", "history.disabled").Build()
	}
	defer func() { _ = store.Close() }()

	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}
	builds := projection.History(h.Limit)

	w := h.out
	if w == nil {
		w = os.Stdout
	}
	if h.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}
	return writeHistoryTable(w, builds)
}

func writeHistoryTable(w io.Writer, builds []eventstore.BuildSummary) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSTATUS\tTRIGGER\tDOCS\tCOPIED\tWARN\tDURATION\tBUILD")
	for _, b := range builds {
		status := b.Status
		if b.ErrorCategory != "" {
			status += " (" + b.ErrorCategory + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime),
			status,
			b.Trigger,
			b.Documents,
			b.Copied,
			b.Warnings,
			b.Duration.Round(time.Millisecond),
			shortID(b.BuildID))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
