package types

// StateKind is the discriminant of a WorkflowState.
type StateKind string

// Workflow state kinds.
const (
	StateIdle           StateKind = "idle"
	StateUploading      StateKind = "uploading"
	StateAwaitingResult StateKind = "awaiting_result"
	StateCompleted      StateKind = "completed"
	StateFailed         StateKind = "failed"
)

// IsTerminal returns true for completed and failed.
func (k StateKind) IsTerminal() bool {
	return k == StateCompleted || k == StateFailed
}

// WorkflowState is the single observable view of a submission.
// Only the fields relevant to Kind are populated.
type WorkflowState struct {
	Kind         StateKind `json:"state" yaml:"state"`
	SubmissionID string    `json:"submission_id,omitempty" yaml:"submission_id,omitempty"`
	File         string    `json:"file,omitempty" yaml:"file,omitempty"`
	// Progress is the upload percentage (uploading only).
	Progress int `json:"progress" yaml:"progress"`
	// Location is the uploaded object reference, set once the transfer succeeds.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	// Result is set only when Kind is completed.
	Result *ResultPayload `json:"result,omitempty" yaml:"result,omitempty"`
	// Reason is the human-readable failure text (failed only).
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Detail carries the underlying error text (failed only).
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Idle returns the initial state.
func Idle() WorkflowState {
	return WorkflowState{Kind: StateIdle}
}

// transitions is the legal transition table.
// A new submission may start from idle or any terminal state.
var transitions = map[StateKind][]StateKind{
	StateIdle:           {StateUploading},
	StateUploading:      {StateUploading, StateAwaitingResult, StateFailed},
	StateAwaitingResult: {StateCompleted, StateFailed},
	StateCompleted:      {StateUploading},
	StateFailed:         {StateUploading},
}

// CanTransition reports whether a workflow may move from one kind to another.
func CanTransition(from, to StateKind) bool {
	for _, k := range transitions[from] {
		if k == to {
			return true
		}
	}
	return false
}
