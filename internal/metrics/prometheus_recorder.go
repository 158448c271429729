package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	ruleDuration     *prom.HistogramVec
	ruleResults      *prom.CounterVec
	documents        *prom.CounterVec
	copied           prom.Counter
	metadataWarnings prom.Counter
	rebuildRequests  *prom.CounterVec
	liveReload       prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		ruleDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_duration_seconds",
			Help:      "Duration of individual rule executions",
			Buckets:   prom.DefBuckets,
		}, []string{"rule"}),
		ruleResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rule_results_total",
			Help:      "Rule execution results by outcome",
		}, []string{"rule", "result"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Documents written by rule",
		}, []string{"rule"}),
		copied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Files copied verbatim",
		}),
		metadataWarnings: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_warnings_total",
			Help:      "Documents whose front matter could not be parsed",
		}),
		rebuildRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_requests_total",
			Help:      "Rebuild requests by trigger",
		}, []string{"trigger"}),
		liveReload: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
	}
	reg.MustRegister(
		pr.buildDuration, pr.buildOutcome, pr.ruleDuration, pr.ruleResults,
		pr.documents, pr.copied, pr.metadataWarnings, pr.rebuildRequests, pr.liveReload,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveRuleDuration(rule string, d time.Duration) {
	if p == nil {
		return
	}
	p.ruleDuration.WithLabelValues(rule).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRuleResult(rule string, result ResultLabel) {
	if p == nil {
		return
	}
	p.ruleResults.WithLabelValues(rule, string(result)).Inc()
}

func (p *PrometheusRecorder) AddDocuments(rule string, n int) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(rule).Add(float64(n))
}

func (p *PrometheusRecorder) AddCopied(n int) {
	if p == nil {
		return
	}
	p.copied.Add(float64(n))
}

func (p *PrometheusRecorder) IncMetadataWarning() {
	if p == nil {
		return
	}
	p.metadataWarnings.Inc()
}

func (p *PrometheusRecorder) IncRebuildRequest(trigger string) {
	if p == nil {
		return
	}
	p.rebuildRequests.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.liveReload.Set(float64(n))
}
