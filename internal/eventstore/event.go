package eventstore

import (
	"encoding/json"
	"time"
)

// EventType names a kind of build event.
type EventType string

const (
	TypeBuildStarted   EventType = "BuildStarted"
	TypeBuildCompleted EventType = "BuildCompleted"
	TypeBuildFailed    EventType = "BuildFailed"
)

// Event is one stored fact about a build.
type Event struct {
	ID        int64
	BuildID   string
	Type      EventType
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Decode unmarshals the JSON payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// StartedPayload is the body of a BuildStarted event.
type StartedPayload struct {
	Trigger string `json:"trigger"`
	Path    string `json:"path,omitempty"`
}

// CompletedPayload is the body of a BuildCompleted event.
type CompletedPayload struct {
	Documents  int   `json:"documents"`
	Copied     int   `json:"copied"`
	Warnings   int   `json:"warnings"`
	DurationMS int64 `json:"duration_ms"`
}

// FailedPayload is the body of a BuildFailed event.
type FailedPayload struct {
	Category   string `json:"category"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

func newEvent(buildID string, typ EventType, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, ErrMarshalPayloadFailed.
			WithContext("build_id", buildID).
			WithContext("event", string(typ)).
			WithContext("cause", err.Error())
	}
	return Event{BuildID: buildID, Type: typ, Timestamp: at, Payload: data}, nil
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, at time.Time, p StartedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildStarted, at, p)
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, at time.Time, p CompletedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildCompleted, at, p)
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID string, at time.Time, p FailedPayload) (Event, error) {
	return newEvent(buildID, TypeBuildFailed, at, p)
}
