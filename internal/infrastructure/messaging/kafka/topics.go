// Package kafka carries the import pipeline's events: a requested season
// import and its completion report.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic constants.
const (
	TopicImportRequested = "pitches.import.requested"
	TopicImportCompleted = "pitches.import.completed"
	TopicDeadLetter      = "pitches.dead_letter"
)

// Event type constants.
const (
	EventImportRequested = "pitches.import.requested"
	EventImportCompleted = "pitches.import.completed"
	EventDeadLetter      = "event.dead_letter"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// ImportRequestedPayload asks the worker to parse a season snapshot into the
// archive.
type ImportRequestedPayload struct {
	Season      int       `json:"season"`
	SnapshotKey string    `json:"snapshot_key"`
	RequestedAt time.Time `json:"requested_at"`
}

// ImportCompletedPayload reports the outcome of a season import.
type ImportCompletedPayload struct {
	Season      int       `json:"season"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	Failed      bool      `json:"failed"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewEnvelope wraps a payload in the standard envelope.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the envelope payload into dst.
func DecodePayload(envelope *EventEnvelope, dst interface{}) error {
	return json.Unmarshal(envelope.Payload, dst)
}
