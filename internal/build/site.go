package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// Site is a source tree, an output tree and the rules and copies between them.
type Site struct {
	SourceRoot string
	OutputRoot string

	rules     []*Rule
	copies    []*Copy
	templates *templates.Registry
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewSite returns an empty site.
func NewSite(sourceRoot, outputRoot string) *Site {
	return &Site{
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		templates:  templates.NewRegistry(),
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
}

// WithRule appends a rule. Rules run in the order added.
func (s *Site) WithRule(r *Rule) *Site {
	s.rules = append(s.rules, r)
	return s
}

// WithCopy appends a copy. Copies run after all rules, in the order added.
func (s *Site) WithCopy(c *Copy) *Site {
	s.copies = append(s.copies, c)
	return s
}

// WithTemplates sets the base template registry. Each build renders with a
// clone of it.
func (s *Site) WithTemplates(reg *templates.Registry) *Site {
	if reg != nil {
		s.templates = reg
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *Site) WithRecorder(r metrics.Recorder) *Site {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithLogger sets the logger.
func (s *Site) WithLogger(l *slog.Logger) *Site {
	if l != nil {
		s.logger = l
	}
	return s
}

// Rules returns the configured rules.
func (s *Site) Rules() []*Rule { return s.rules }

// Rule returns the rule named name, or nil.
func (s *Site) Rule(name string) *Rule {
	for _, r := range s.rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Copies returns the configured copies.
func (s *Site) Copies() []*Copy { return s.copies }

// Templates returns the base template registry.
func (s *Site) Templates() *templates.Registry { return s.templates }

// Build runs every rule, then every copy. The context is checked only before
// the build starts; a started build runs to completion or first error.
func (s *Site) Build(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{BuildID: uuid.NewString(), Started: time.Now()}
	run := &buildRun{
		site:     s,
		report:   report,
		registry: s.templates.Clone(),
		logger:   s.logger.With(logfields.BuildID(report.BuildID)),
	}

	run.logger.Info("Build started",
		slog.String("source", s.SourceRoot),
		logfields.Output(s.OutputRoot),
		slog.Int("rules", len(s.rules)),
		slog.Int("copies", len(s.copies)))

	err := run.execute()
	report.Duration = time.Since(report.Started)
	s.recorder.ObserveBuildDuration(report.Duration)

	if err != nil {
		report.Err = err
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		run.logger.Error("Build failed", logfields.DurationMS(float64(report.Duration.Microseconds())/1000), logfields.Error(err))
		return report, err
	}

	outcome := metrics.BuildOutcomeSuccess
	if report.Warnings > 0 {
		outcome = metrics.BuildOutcomeWarning
	}
	s.recorder.IncBuildOutcome(outcome)
	run.logger.Info("Build completed",
		logfields.Documents(report.Documents),
		logfields.Copied(report.Copied),
		logfields.Warnings(report.Warnings),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, nil
}

// Clean removes the output root and everything in it.
func (s *Site) Clean() error {
	if s.OutputRoot == "" {
		return errors.ConfigError("output root is not set").Build()
	}
	out, err := filepath.Abs(s.OutputRoot)
	if err != nil {
		return errors.FileSystemError("cannot resolve output root").
			WithCause(err).
			WithContext("path", s.OutputRoot).
			Build()
	}
	if src, serr := filepath.Abs(s.SourceRoot); serr == nil && isWithin(src, out) {
		return errors.ConfigError("refusing to clean an output root that contains the source root").
			WithContext("output", out).
			WithContext("source", src).
			Build()
	}
	if err := os.RemoveAll(out); err != nil {
		return errors.FileSystemError("failed to remove output root").
			WithCause(err).
			WithContext("path", out).
			Build()
	}
	s.logger.Info("Removed output directory", logfields.Output(out))
	return nil
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
