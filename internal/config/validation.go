package config

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/glob"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
)

// Filter names accepted in rules.
const (
	FilterMarkdown   = "markdown"
	FilterShortcodes = "shortcodes"
	FilterUpper      = "upper"
	FilterLower      = "lower"
)

// Extractor names accepted in mines.
const (
	ExtractorMetadata    = "metadata"
	ExtractorPath        = "path"
	ExtractorURL         = "url"
	ExtractorSummary     = "summary"
	ExtractorFingerprint = "fingerprint"
	ExtractorGit         = "git"
)

var (
	knownFilters    = []string{FilterMarkdown, FilterShortcodes, FilterUpper, FilterLower}
	knownExtractors = []string{ExtractorMetadata, ExtractorPath, ExtractorURL, ExtractorSummary, ExtractorFingerprint, ExtractorGit}
)

// Validate checks the configuration for errors a build would otherwise hit late.
func (c *Config) Validate() error {
	if c.Source == c.Output {
		return invalid("output", "output must differ from source")
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for i, r := range c.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if r.Name == "" {
			return invalid(field+".name", "rule name is required")
		}
		if _, dup := seen[r.Name]; dup {
			return invalid(field+".name", "duplicate rule name").WithContext("rule", r.Name)
		}
		seen[r.Name] = struct{}{}

		if err := validatePatterns(field, r.Patterns); err != nil {
			return err
		}
		if _, err := route.Parse(r.Route); err != nil {
			return invalid(field+".route", "unknown route").WithContext("route", r.Route)
		}
		for _, f := range r.Filters {
			if !slices.Contains(knownFilters, f) {
				return invalid(field+".filters", "unknown filter").WithContext("filter", f)
			}
		}
	}

	for i, cp := range c.Copies {
		field := fmt.Sprintf("copies[%d]", i)
		if err := validatePatterns(field, cp.Patterns); err != nil {
			return err
		}
		if _, err := route.Parse(cp.Route); err != nil {
			return invalid(field+".route", "unknown route").WithContext("route", cp.Route)
		}
	}

	for i, m := range c.Mines {
		field := fmt.Sprintf("mines[%d]", i)
		if err := validatePatterns(field, m.Patterns); err != nil {
			return err
		}
		if _, ok := seen[m.Rule]; !ok {
			return invalid(field+".rule", "mine targets an unknown rule").WithContext("rule", m.Rule)
		}
		if m.Key == "" {
			return invalid(field+".key", "mine key is required")
		}
		for _, e := range m.Extractors {
			if !slices.Contains(knownExtractors, e) {
				return invalid(field+".extractors", "unknown extractor").WithContext("extractor", e)
			}
		}
	}

	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return invalid("serve.port", "port out of range").WithContext("port", c.Serve.Port)
	}
	d, err := c.Serve.Interval()
	if err != nil {
		return invalid("serve.rebuild_interval", "invalid duration").WithContext("value", c.Serve.RebuildInterval)
	}
	if d < 0 {
		return invalid("serve.rebuild_interval", "interval must not be negative").WithContext("value", c.Serve.RebuildInterval)
	}
	return nil
}

func validatePatterns(field string, patterns []string) error {
	if len(patterns) == 0 {
		return invalid(field+".patterns", "at least one pattern is required")
	}
	for _, p := range patterns {
		if err := glob.Validate(p); err != nil {
			return invalid(field+".patterns", "invalid pattern").WithContext("pattern", p)
		}
	}
	return nil
}

func invalid(field, msg string) *errors.ClassifiedError {
	return errors.ConfigError(msg).WithContext("field", field).UserAction().Build()
}
