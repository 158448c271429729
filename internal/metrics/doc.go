// Package metrics provides the observability hooks for site builds.
//
// Components receive a Recorder through their With* options and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	site := build.NewSite(src, out)                        // NoopRecorder
//	site = site.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The serve command registers a PrometheusRecorder on a private registry and
// exposes it through HTTPHandler at /metrics.
package metrics
