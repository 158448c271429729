// Package config loads the declarative site file.
package config

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/filters"
)

// Config is the site file.
type Config struct {
	Source     string                  `yaml:"source" toml:"source"`
	Output     string                  `yaml:"output" toml:"output"`
	Templates  string                  `yaml:"templates" toml:"templates"`
	Context    map[string]any          `yaml:"context" toml:"context"`
	Shortcodes map[string]string       `yaml:"shortcodes" toml:"shortcodes"`
	Markdown   filters.MarkdownOptions `yaml:"markdown" toml:"markdown"`
	Rules      []RuleConfig            `yaml:"rules" toml:"rules"`
	Copies     []CopyConfig            `yaml:"copies" toml:"copies"`
	Mines      []MineConfig            `yaml:"mines" toml:"mines"`
	Serve      ServeConfig             `yaml:"serve" toml:"serve"`
	History    HistoryConfig           `yaml:"history" toml:"history"`
	Notify     NotifyConfig            `yaml:"notify" toml:"notify"`
	Logging    LoggingConfig           `yaml:"logging" toml:"logging"`

	// Dir is the directory of the loaded site file. Relative paths resolve against it.
	Dir string `yaml:"-" toml:"-"`
}

// RuleConfig declares one transformation rule.
type RuleConfig struct {
	Name     string         `yaml:"name" toml:"name"`
	Patterns []string       `yaml:"patterns" toml:"patterns"`
	Filters  []string       `yaml:"filters" toml:"filters"`
	Template string         `yaml:"template" toml:"template"`
	Route    string         `yaml:"route" toml:"route"`
	Context  map[string]any `yaml:"context" toml:"context"`
}

// CopyConfig declares files copied verbatim.
type CopyConfig struct {
	Patterns []string `yaml:"patterns" toml:"patterns"`
	Route    string   `yaml:"route" toml:"route"`
}

// MineConfig declares a miner pass whose results feed a rule's context.
type MineConfig struct {
	Patterns   []string `yaml:"patterns" toml:"patterns"`
	Extractors []string `yaml:"extractors" toml:"extractors"`
	// Rule receives the mined list under Key.
	Rule          string `yaml:"rule" toml:"rule"`
	Key           string `yaml:"key" toml:"key"`
	SummaryLength int    `yaml:"summary_length" toml:"summary_length"`
}

// ServeConfig configures the preview server and rebuild triggers.
type ServeConfig struct {
	Host       string `yaml:"host" toml:"host"`
	Port       int    `yaml:"port" toml:"port"`
	LiveReload *bool  `yaml:"live_reload" toml:"live_reload"`
	// RebuildInterval is a Go duration; "0s" or empty disables periodic rebuilds.
	RebuildInterval string `yaml:"rebuild_interval" toml:"rebuild_interval"`
	RebuildCron     string `yaml:"rebuild_cron" toml:"rebuild_cron"`
}

// LiveReloadEnabled reports whether live reload is on. It defaults to true.
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// Interval parses RebuildInterval.
func (s ServeConfig) Interval() (time.Duration, error) {
	if s.RebuildInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(s.RebuildInterval)
}

// HistoryConfig configures the build history database.
type HistoryConfig struct {
	Path     string `yaml:"path" toml:"path"`
	Disabled bool   `yaml:"disabled" toml:"disabled"`
	// MaxEntries bounds the in-memory history view.
	MaxEntries int `yaml:"max_entries" toml:"max_entries"`
}

// NotifyConfig configures NATS build notifications. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
	Subject string `yaml:"subject" toml:"subject"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" toml:"level"`
	Format LogFormat `yaml:"format" toml:"format"`
}

// Rule returns the rule named name.
func (c *Config) Rule(name string) (RuleConfig, bool) {
	for _, r := range c.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return RuleConfig{}, false
}
