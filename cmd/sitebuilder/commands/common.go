// Package commands implements the sitebuilder CLI.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
)

// EnvLogLevel overrides the configured log level unless --verbose is set.
const EnvLogLevel = "SITEBUILDER_LOG_LEVEL"

// Global carries state shared by all commands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command.
type CLI struct {
	Config  string           `short:"c" help:"Site file path (.yaml, .yml or .toml)" default:"site.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Serve   ServeCmd   `cmd:"" help:"Build, watch and serve the site with live reload"`
	Clean   CleanCmd   `cmd:"" help:"Remove the output directory"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
	Init    InitCmd    `cmd:"" help:"Create a starter site"`
}

// AfterApply sets up a provisional logger before the site file is read.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(os.Stderr, c.level(config.LogLevelInfo), config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

// level resolves the effective level: --verbose, then the environment, then fallback.
func (c *CLI) level(fallback config.LogLevel) config.LogLevel {
	if c.Verbose {
		return config.LogLevelDebug
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		return config.NormalizeLogLevel(env)
	}
	return fallback
}

// loadConfig reads the site file and reconfigures logging from it.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(os.Stderr, c.level(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openHistory opens the history store, or returns nil when history is disabled.
func openHistory(cfg *config.Config) (*eventstore.SQLiteStore, *eventstore.BuildHistoryProjection, error) {
	if cfg.History.Disabled {
		return nil, nil, nil
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, eventstore.NewBuildHistoryProjection(store, cfg.History.MaxEntries), nil
}
