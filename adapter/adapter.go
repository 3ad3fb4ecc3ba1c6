// Package adapter defines the notification boundary for finished submissions.
//
// Adapters publish a ResultEvent to a downstream system once a submission
// reaches a terminal state. The workflow owns publishing; adapters own
// transport and encoding.
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pithecene-io/ferry/types"
)

// Event types.
const (
	EventResultReady  = "result_ready"
	EventResultFailed = "result_failed"
)

// ResultEvent is the payload published when a submission finishes.
type ResultEvent struct {
	ContractVersion string `json:"contract_version" msgpack:"contract_version"`
	EventType       string `json:"event_type" msgpack:"event_type"` // result_ready or result_failed
	SubmissionID    string `json:"submission_id" msgpack:"submission_id"`
	File            string `json:"file" msgpack:"file"`
	Location        string `json:"location,omitempty" msgpack:"location,omitempty"`
	ResultKey       string `json:"result_key" msgpack:"result_key"`
	Outcome         string `json:"outcome" msgpack:"outcome"` // completed or failed
	Reason          string `json:"reason,omitempty" msgpack:"reason,omitempty"`
	// Result is the raw result document, passed through undecoded.
	Result     json.RawMessage `json:"result,omitempty" msgpack:"result,omitempty"`
	Timestamp  string          `json:"timestamp" msgpack:"timestamp"` // RFC 3339
	DurationMs int64           `json:"duration_ms" msgpack:"duration_ms"`
}

// NewResultEvent builds the event for a terminal workflow state.
// started is when the submission was accepted; now is the publish time.
func NewResultEvent(state types.WorkflowState, target types.PollTarget, started, now time.Time) *ResultEvent {
	ev := &ResultEvent{
		ContractVersion: types.EventContractVersion,
		EventType:       EventResultFailed,
		SubmissionID:    state.SubmissionID,
		File:            state.File,
		Location:        state.Location,
		ResultKey:       target.String(),
		Outcome:         string(state.Kind),
		Reason:          state.Reason,
		Timestamp:       now.UTC().Format(time.RFC3339),
		DurationMs:      now.Sub(started).Milliseconds(),
	}
	if state.Kind == types.StateCompleted {
		ev.EventType = EventResultReady
		if state.Result != nil && json.Valid(state.Result.Raw) {
			ev.Result = json.RawMessage(state.Result.Raw)
		}
	}
	return ev
}

// Adapter publishes result events to a downstream system.
// Implementations must be safe for concurrent Publish calls.
type Adapter interface {
	// Publish sends a result event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ResultEvent) error

	// Close releases adapter resources.
	Close() error
}
