package eventstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// BuildRecorder writes the events for finished builds and keeps a projection current.
type BuildRecorder struct {
	store      Store
	projection *BuildHistoryProjection
}

// NewBuildRecorder returns a recorder appending to store. projection may be nil.
func NewBuildRecorder(store Store, projection *BuildHistoryProjection) *BuildRecorder {
	return &BuildRecorder{store: store, projection: projection}
}

// Record stores the start and outcome of one build. report may be nil when
// the build never started; a build ID is generated in that case.
func (r *BuildRecorder) Record(ctx context.Context, trigger, path string, report *build.Report, buildErr error) error {
	buildID := uuid.NewString()
	started := time.Now()
	var duration time.Duration
	if report != nil {
		if report.BuildID != "" {
			buildID = report.BuildID
		}
		if !report.Started.IsZero() {
			started = report.Started
		}
		duration = report.Duration
	}

	events := make([]Event, 0, 2)
	start, err := NewBuildStarted(buildID, started, StartedPayload{Trigger: trigger, Path: path})
	if err != nil {
		return err
	}
	events = append(events, start)

	finished := started.Add(duration)
	var outcome Event
	if buildErr != nil {
		outcome, err = NewBuildFailed(buildID, finished, FailedPayload{
			Category:   string(errors.GetCategory(buildErr)),
			Error:      buildErr.Error(),
			DurationMS: duration.Milliseconds(),
		})
	} else {
		p := CompletedPayload{DurationMS: duration.Milliseconds()}
		if report != nil {
			p.Documents, p.Copied, p.Warnings = report.Documents, report.Copied, report.Warnings
		}
		outcome, err = NewBuildCompleted(buildID, finished, p)
	}
	if err != nil {
		return err
	}
	events = append(events, outcome)

	for _, e := range events {
		if err := r.store.Append(ctx, e); err != nil {
			return err
		}
		if r.projection != nil {
			r.projection.Apply(e)
		}
	}
	return nil
}
