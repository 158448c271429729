// Package assembly turns a loaded site file into a runnable build.Site.
package assembly

import (
	"cmp"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/filters"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/gitmeta"
	"git.home.luguber.info/inful/sitebuilder/internal/glob"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/miner"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
	"git.home.luguber.info/inful/sitebuilder/internal/shortcode"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// SourceKey holds a mined document's absolute source path in the list handed to rules.
const SourceKey = "source"

// Assemble builds a Site from cfg: templates, shortcodes, rules, copies, then
// runs the configured mines and stores their results in the target rules' contexts.
func Assemble(cfg *config.Config, logger *slog.Logger) (*build.Site, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := templates.NewRegistry()
	if cfg.Templates != "" {
		if err := reg.LoadDir(cfg.Templates); err != nil {
			return nil, err
		}
	}

	handlers, err := Shortcodes(cfg.Shortcodes)
	if err != nil {
		return nil, err
	}
	md := filters.NewMarkdown(cfg.Markdown)

	site := build.NewSite(cfg.Source, cfg.Output).WithTemplates(reg).WithLogger(logger)

	for _, rc := range cfg.Rules {
		rule, err := newRule(rc, cfg.Context, handlers, md)
		if err != nil {
			return nil, err
		}
		site.WithRule(rule)
	}

	for _, cc := range cfg.Copies {
		rt, err := route.Parse(cc.Route)
		if err != nil {
			return nil, err
		}
		site.WithCopy(build.NewCopy(cc.Patterns...).RouteWith(rt))
	}

	for _, mc := range cfg.Mines {
		rule := site.Rule(mc.Rule)
		if rule == nil {
			return nil, errors.ConfigError("mine targets an unknown rule").WithContext("rule", mc.Rule).Build()
		}
		data, err := newMiner(mc, cfg.Source, site.Rules(), md, logger).Mine(cfg.Source)
		if err != nil {
			return nil, err
		}
		rule.Set(mc.Key, List(data))
		logger.Debug("Mined documents", logfields.Rule(mc.Rule), logfields.Documents(len(data)), slog.String("key", mc.Key))
	}

	return site, nil
}

func newRule(rc config.RuleConfig, global map[string]any, handlers []shortcode.Handler, md *filters.Markdown) (*build.Rule, error) {
	rt, err := route.Parse(rc.Route)
	if err != nil {
		return nil, err
	}
	rule := build.NewRule(rc.Name, rc.Patterns...).
		RouteWith(rt).
		Wrap(rc.Template).
		WithContext(global).
		WithContext(rc.Context)

	for _, name := range rc.Filters {
		f, err := Filter(name, handlers, md)
		if err != nil {
			return nil, err
		}
		rule.Filter(f)
	}
	return rule, nil
}

// Filter resolves a filter by its config name.
func Filter(name string, handlers []shortcode.Handler, md *filters.Markdown) (filters.Filter, error) {
	switch name {
	case config.FilterMarkdown:
		return md, nil
	case config.FilterShortcodes:
		return filters.Shortcodes(handlers), nil
	case config.FilterUpper:
		return filters.Upper, nil
	case config.FilterLower:
		return filters.Lower, nil
	default:
		return nil, errors.ConfigError("unknown filter").WithContext("filter", name).Build()
	}
}

// Shortcodes builds handlers from tag → template source. Longer tags come
// first so a tag is never shadowed by one of its prefixes.
func Shortcodes(defs map[string]string) ([]shortcode.Handler, error) {
	tags := slices.SortedFunc(maps.Keys(defs), func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	handlers := make([]shortcode.Handler, 0, len(tags))
	for _, tag := range tags {
		h, err := shortcode.TemplateHandler(tag, defs[tag])
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

func newMiner(mc config.MineConfig, sourceRoot string, rules []*build.Rule, md *filters.Markdown, logger *slog.Logger) *miner.Miner {
	m := miner.New(mc.Patterns...).WithLogger(logger)
	for _, name := range mc.Extractors {
		switch name {
		case config.ExtractorMetadata:
			m.Extract(miner.Metadata())
		case config.ExtractorPath:
			m.Extract(miner.Path())
		case config.ExtractorURL:
			m.Extract(outputURL(rules))
		case config.ExtractorSummary:
			m.Extract(miner.Summary(mc.SummaryLength, md))
		case config.ExtractorFingerprint:
			m.Extract(miner.Fingerprint())
		case config.ExtractorGit:
			m.Extract(gitmeta.LastCommit(sourceRoot))
		}
	}
	return m
}

// outputURL computes the URL with the route of the first rule whose
// patterns match the document, or identity when none does.
func outputURL(rules []*build.Rule) miner.Extractor {
	return miner.ExtractorFunc(func(doc *docmodel.Document, root string) (docmodel.Variables, error) {
		rel, err := filepath.Rel(root, doc.Path)
		if err != nil {
			return nil, route.ErrOutsideRoot.WithContext("path", doc.Path)
		}
		return miner.URL(routeFor(rules, rel)).Extract(doc, root)
	})
}

func routeFor(rules []*build.Rule, rel string) route.Route {
	for _, r := range rules {
		for _, p := range r.Patterns {
			if glob.Match(p, rel) {
				return r.Route
			}
		}
	}
	return route.Identity
}

// List flattens mined Data into variable maps sorted by source path, each
// carrying its path under SourceKey.
func List(data docmodel.Data) []docmodel.Variables {
	out := make([]docmodel.Variables, 0, len(data))
	for _, p := range data.Paths() {
		vars := data[p].Clone()
		vars[SourceKey] = p
		out = append(out, vars)
	}
	return out
}
