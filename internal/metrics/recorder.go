package metrics

import "time"

// ResultLabel enumerates per-rule result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeWarning BuildOutcomeLabel = "warning"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for builds, rules and the serve loop.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveRuleDuration(rule string, d time.Duration)
	IncRuleResult(rule string, result ResultLabel)
	AddDocuments(rule string, n int)
	AddCopied(n int)
	IncMetadataWarning()
	IncRebuildRequest(trigger string)
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)         {}
func (NoopRecorder) ObserveRuleDuration(string, time.Duration) {}
func (NoopRecorder) IncRuleResult(string, ResultLabel)         {}
func (NoopRecorder) AddDocuments(string, int)                  {}
func (NoopRecorder) AddCopied(int)                             {}
func (NoopRecorder) IncMetadataWarning()                       {}
func (NoopRecorder) IncRebuildRequest(string)                  {}
func (NoopRecorder) SetLiveReloadClients(int)                  {}
