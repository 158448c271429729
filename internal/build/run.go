package build

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/filters"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/glob"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/route"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

const dirMode = 0o755

// buildRun holds the state of a single Build call.
type buildRun struct {
	site     *Site
	report   *Report
	registry *templates.Registry
	logger   *slog.Logger
}

func (b *buildRun) execute() error {
	for _, r := range b.site.rules {
		if err := b.runRule(r); err != nil {
			return err
		}
	}
	for _, c := range b.site.copies {
		if err := b.runCopy(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *buildRun) runRule(r *Rule) error {
	start := time.Now()
	logger := b.logger.With(logfields.Rule(r.Name))

	files, err := glob.Files(b.site.SourceRoot, r.Patterns...)
	if err != nil {
		b.site.recorder.IncRuleResult(r.Name, metrics.ResultFatal)
		return annotate(err, "rule", r.Name)
	}

	for _, path := range files {
		if err := b.runDocument(r, path, logger); err != nil {
			b.site.recorder.IncRuleResult(r.Name, metrics.ResultFatal)
			return err
		}
	}

	elapsed := time.Since(start)
	b.site.recorder.ObserveRuleDuration(r.Name, elapsed)
	b.site.recorder.IncRuleResult(r.Name, metrics.ResultSuccess)
	b.site.recorder.AddDocuments(r.Name, len(files))
	b.report.Rules = append(b.report.Rules, RuleReport{Name: r.Name, Documents: len(files), Duration: elapsed})
	logger.Debug("Rule completed", logfields.Documents(len(files)), logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return nil
}

func (b *buildRun) runDocument(r *Rule, path string, logger *slog.Logger) error {
	doc, warning, err := docmodel.Load(path)
	if err != nil {
		return annotate(err, "rule", r.Name, "path", path)
	}
	if warning != nil {
		b.report.Warnings++
		b.site.recorder.IncMetadataWarning()
		logger.Warn("Malformed front matter, using empty metadata",
			logfields.Path(path), logfields.Error(warning))
	}

	vars := docmodel.Layer(r.Context, doc.Metadata)

	// The body is itself a template over the document's context.
	if err := b.registry.Add(path, doc.Content); err != nil {
		return annotate(err, "rule", r.Name, "path", path)
	}
	body, err := b.registry.Render(path, vars)
	if err != nil {
		return annotate(err, "rule", r.Name, "path", path)
	}
	doc.Content = body

	for _, f := range r.Filters {
		next, err := f.Apply(doc)
		if err == nil && next == nil {
			err = errors.InternalError("filter returned no document").Build()
		}
		if err != nil {
			return classify(err, errors.CategoryConversion, "filter failed").
				WithContext("rule", r.Name).
				WithContext("path", path).
				WithContext("filter", filters.NameOf(f)).
				Build()
		}
		doc = next
	}

	if r.Template != "" {
		vars[docmodel.ContentKey] = doc.Content
		wrapped, err := b.registry.Render(r.Template, vars)
		if err != nil {
			return annotate(err, "rule", r.Name, "path", path)
		}
		doc.Content = wrapped
		doc.Raw = nil
	}

	out, err := routeOf(r.Route).Route(path, b.site.SourceRoot, b.site.OutputRoot)
	if err != nil {
		return annotate(err, "rule", r.Name, "path", path)
	}
	if err := writeOutput(out, doc.Bytes()); err != nil {
		return annotate(err, "rule", r.Name, "path", path, "output", out)
	}

	b.report.Documents++
	b.report.Outputs = append(b.report.Outputs, out)
	logger.Debug("Wrote document", logfields.Path(path), logfields.Output(out))
	return nil
}

func (b *buildRun) runCopy(c *Copy) error {
	patterns := strings.Join(c.Patterns, ",")
	files, err := glob.Files(b.site.SourceRoot, c.Patterns...)
	if err != nil {
		return annotate(err, "copy", patterns)
	}
	for _, path := range files {
		out, err := routeOf(c.Route).Route(path, b.site.SourceRoot, b.site.OutputRoot)
		if err != nil {
			return annotate(err, "copy", patterns, "path", path)
		}
		if err := copyFile(path, out); err != nil {
			return annotate(err, "copy", patterns, "path", path, "output", out)
		}
		b.report.Copied++
		b.report.Outputs = append(b.report.Outputs, out)
		b.logger.Debug("Copied file", logfields.Path(path), logfields.Output(out))
	}
	b.site.recorder.AddCopied(len(files))
	return nil
}

func routeOf(r route.Route) route.Route {
	if r == nil {
		return route.Identity
	}
	return r
}

// classify wraps err, keeping its category when it already has one.
func classify(err error, fallback errors.ErrorCategory, message string) *errors.ErrorBuilder {
	category := fallback
	if c, ok := errors.AsClassified(err); ok {
		category = c.Category()
	}
	return errors.WrapError(err, category, message).Fatal()
}

// annotate adds key/value context to err, classifying it as a build error
// when it carries no category yet.
func annotate(err error, kv ...string) error {
	c, ok := errors.AsClassified(err)
	if !ok {
		c = classify(err, errors.CategoryBuild, "build step failed").Build()
	}
	for i := 0; i+1 < len(kv); i += 2 {
		c = c.WithContext(kv[i], kv[i+1])
	}
	return c
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	// MkdirAll is subject to the umask and leaves existing directories alone.
	if err := os.Chmod(dir, dirMode); err != nil {
		return errors.FileSystemError("failed to set output directory permissions").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	return nil
}

func writeOutput(out string, data []byte) error {
	if err := ensureDir(filepath.Dir(out)); err != nil {
		return err
	}
	// #nosec G306 -- site output is public
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.FileSystemError("failed to write output").
			WithCause(err).
			WithContext("output", out).
			Build()
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.FileSystemError("failed to stat source file").
			WithCause(err).
			WithContext("path", src).
			Build()
	}
	if err := ensureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return errors.FileSystemError("failed to open source file").
			WithCause(err).
			WithContext("path", src).
			Build()
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.FileSystemError("failed to create output file").
			WithCause(err).
			WithContext("output", dst).
			Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.FileSystemError("failed to copy file").
			WithCause(err).
			WithContext("path", src).
			WithContext("output", dst).
			Build()
	}
	if err := out.Close(); err != nil {
		return errors.FileSystemError("failed to close output file").
			WithCause(err).
			WithContext("output", dst).
			Build()
	}
	// OpenFile only applies the mode when creating; keep overwritten files in sync.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.FileSystemError("failed to set output file mode").
			WithCause(err).
			WithContext("output", dst).
			Build()
	}
	return nil
}
