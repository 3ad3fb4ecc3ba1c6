package types

import (
	"errors"
	"fmt"
)

// Sentinel failure kinds. Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrTransfer indicates the store rejected or could not complete the upload.
	ErrTransfer = errors.New("transfer failed")

	// ErrPollFetch indicates the store read raised an error while polling.
	// Not-found is included unless the poller is configured to retry on it.
	ErrPollFetch = errors.New("result fetch failed")

	// ErrDecode indicates the fetched result body is not valid UTF-8 JSON.
	ErrDecode = errors.New("result decode failed")

	// ErrCanceled indicates the submission was stopped by its owner.
	ErrCanceled = errors.New("canceled")
)

// Human-readable failure reasons surfaced in WorkflowState.Reason.
const (
	ReasonTransfer       = "Error uploading file"
	ReasonPollFetch      = "Error polling preprocessed file"
	ReasonDecode         = "Error decoding preprocessed file"
	ReasonUploadCanceled = "Upload canceled"
	ReasonPollCanceled   = "Polling canceled"
)

// WorkflowError wraps an underlying error with a failure kind.
// It preserves the original error in the chain for inspection via errors.As.
type WorkflowError struct {
	// Kind is the sentinel error for classification (e.g., ErrPollFetch).
	Kind error
	// Key is the object key involved, if any.
	Key string
	// Err is the underlying error.
	Err error
}

func (e *WorkflowError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %v: %v", e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewWorkflowError creates a classified workflow error.
func NewWorkflowError(kind error, key string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Key: key, Err: err}
}

// Reason maps an error to the human-readable text shown to users.
// Cancellation during a poll reports ReasonPollCanceled; callers that
// cancel an upload use ReasonUploadCanceled directly.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return ReasonPollCanceled
	case errors.Is(err, ErrDecode):
		return ReasonDecode
	case errors.Is(err, ErrPollFetch):
		return ReasonPollFetch
	case errors.Is(err, ErrTransfer):
		return ReasonTransfer
	default:
		return err.Error()
	}
}
