// Package types defines core domain types for ferry.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"io"
	"math"
)

// UploadRequest is a single file accepted for transfer.
// Immutable once accepted; the transfer controller owns Body until the
// transfer outcome is produced.
type UploadRequest struct {
	// Name is the file name, used as the object key under the input subpath.
	Name string
	// Size is the total byte count of Body.
	Size int64
	// ContentType is optional; empty lets the store decide.
	ContentType string
	// Body is the file content.
	Body io.Reader
}

// TransferProgress is a point-in-time view of an in-flight transfer.
type TransferProgress struct {
	// Percent is round(BytesSent / TotalBytes * 100), bounded in [0,100].
	Percent    int   `json:"percent" msgpack:"percent"`
	BytesSent  int64 `json:"bytes_sent" msgpack:"bytes_sent"`
	TotalBytes int64 `json:"total_bytes" msgpack:"total_bytes"`
}

// Percent computes the rounded percentage of acked over total, clamped to [0,100].
// A non-positive total yields 0.
func Percent(acked, total int64) int {
	if total <= 0 || acked <= 0 {
		return 0
	}
	if acked >= total {
		return 100
	}
	return int(math.Round(float64(acked) * 100 / float64(total)))
}

// TransferStatus is the status of a transfer outcome.
type TransferStatus string

const (
	// TransferSuccess indicates the store confirmed the write.
	TransferSuccess TransferStatus = "success"
	// TransferFailure indicates the store rejected or could not complete the write.
	TransferFailure TransferStatus = "failure"
)

// TransferOutcome is produced exactly once per transfer attempt.
type TransferOutcome struct {
	Status TransferStatus `json:"status"`
	// Location is the resolvable object reference (success only).
	Location string `json:"location,omitempty"`
	// Reason is a human-readable failure description (failure only).
	Reason string `json:"reason,omitempty"`
	// Err is the underlying error (failure only).
	Err error `json:"-"`
}

// Succeeded reports whether the outcome is a success.
func (o TransferOutcome) Succeeded() bool {
	return o.Status == TransferSuccess
}

// PollTarget identifies the result object the poller watches for.
type PollTarget struct {
	// Container is the output container: bucket joined with the output subpath.
	Container string `json:"container"`
	// Key is the result filename, fixed for the process lifetime.
	Key string `json:"key"`
}

// String returns container/key.
func (t PollTarget) String() string {
	if t.Container == "" {
		return t.Key
	}
	return t.Container + "/" + t.Key
}

// ResultPayload is the decoded result object.
// The schema is opaque: Data holds whatever the JSON document decodes to.
type ResultPayload struct {
	Key  string `json:"key" yaml:"key"`
	Data any    `json:"data" yaml:"data"`
	// Raw is the original body, kept for passthrough to notification adapters.
	Raw []byte `json:"-" yaml:"-"`
}
