package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Build statuses reported by BuildSummary.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// BuildSummary is the read model for one build.
type BuildSummary struct {
	BuildID       string        `json:"build_id"`
	Trigger       string        `json:"trigger"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration"`
	Documents     int           `json:"documents"`
	Copied        int           `json:"copied"`
	Warnings      int           `json:"warnings"`
	ErrorCategory string        `json:"error_category,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// BuildHistoryProjection keeps the most recent builds in memory, rebuilt
// from the store at startup and updated as events are applied.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	maxSize int
}

// NewBuildHistoryProjection creates a projection backed by store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild replays every stored event.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	for _, e := range events {
		p.applyLocked(e)
	}
	p.pruneLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *BuildHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.pruneLocked()
}

func (p *BuildHistoryProjection) applyLocked(e Event) {
	if e.BuildID == "" {
		return
	}
	s, ok := p.builds[e.BuildID]
	if !ok {
		s = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
		p.builds[e.BuildID] = s
	}

	switch e.Type {
	case TypeBuildStarted:
		var payload StartedPayload
		if err := e.Decode(&payload); err == nil {
			s.Trigger = payload.Trigger
		}
		s.StartedAt = e.Timestamp

	case TypeBuildCompleted:
		at := e.Timestamp
		s.CompletedAt = &at
		s.Status = StatusSucceeded
		var payload CompletedPayload
		if err := e.Decode(&payload); err == nil {
			s.Documents = payload.Documents
			s.Copied = payload.Copied
			s.Warnings = payload.Warnings
			s.Duration = time.Duration(payload.DurationMS) * time.Millisecond
		}

	case TypeBuildFailed:
		at := e.Timestamp
		s.CompletedAt = &at
		s.Status = StatusFailed
		var payload FailedPayload
		if err := e.Decode(&payload); err == nil {
			s.ErrorCategory = payload.Category
			s.ErrorMessage = payload.Error
			s.Duration = time.Duration(payload.DurationMS) * time.Millisecond
		}
	}
}

// pruneLocked drops the oldest finished builds beyond maxSize.
func (p *BuildHistoryProjection) pruneLocked() {
	if len(p.builds) <= p.maxSize {
		return
	}
	all := p.sortedLocked()
	for _, s := range all[p.maxSize:] {
		if s.Status != StatusRunning {
			delete(p.builds, s.BuildID)
		}
	}
}

// sortedLocked returns summaries newest first.
func (p *BuildHistoryProjection) sortedLocked() []*BuildSummary {
	out := make([]*BuildSummary, 0, len(p.builds))
	for _, s := range p.builds {
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].BuildID > out[j].BuildID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// History returns up to limit summaries, newest first. A non-positive limit returns all.
func (p *BuildHistoryProjection) History(limit int) []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	all := p.sortedLocked()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]BuildSummary, len(all))
	for i, s := range all {
		out[i] = *s
	}
	return out
}

// GetBuild returns a copy of the summary for buildID.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *s, true
}

// LastCompleted returns the newest finished build.
func (p *BuildHistoryProjection) LastCompleted() (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.sortedLocked() {
		if s.Status != StatusRunning {
			return *s, true
		}
	}
	return BuildSummary{}, false
}
