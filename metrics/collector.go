// Package metrics provides per-process counters for the submit/await workflow.
//
// The Collector is a leaf package with no internal dependencies. Components
// receive a *Collector and record into it as the workflow progresses; the
// CLI renders a Snapshot at exit.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Submissions
	SubmissionsStarted  int64 `json:"submissions_started" yaml:"submissions_started"`
	SubmissionsRejected int64 `json:"submissions_rejected" yaml:"submissions_rejected"`

	// Transfer
	TransfersSucceeded int64 `json:"transfers_succeeded" yaml:"transfers_succeeded"`
	TransfersFailed    int64 `json:"transfers_failed" yaml:"transfers_failed"`
	BytesUploaded      int64 `json:"bytes_uploaded" yaml:"bytes_uploaded"`

	// Poller
	PollsStarted  int64 `json:"polls_started" yaml:"polls_started"`
	PollTicks     int64 `json:"poll_ticks" yaml:"poll_ticks"`
	EmptyTicks    int64 `json:"empty_ticks" yaml:"empty_ticks"`
	NotFoundTicks int64 `json:"not_found_ticks" yaml:"not_found_ticks"`
	FetchErrors   int64 `json:"fetch_errors" yaml:"fetch_errors"`
	DecodeErrors  int64 `json:"decode_errors" yaml:"decode_errors"`
	ResultsReady  int64 `json:"results_ready" yaml:"results_ready"`
	PollsCanceled int64 `json:"polls_canceled" yaml:"polls_canceled"`

	// Notification adapter
	NotificationsSent   int64 `json:"notifications_sent" yaml:"notifications_sent"`
	NotificationsFailed int64 `json:"notifications_failed" yaml:"notifications_failed"`

	// Dimensions (informational, set at construction)
	StorageBackend string `json:"storage_backend" yaml:"storage_backend"`
	NotFoundPolicy string `json:"not_found_policy" yaml:"not_found_policy"`
	Adapter        string `json:"adapter,omitempty" yaml:"adapter,omitempty"`
}

// Collector accumulates counters for one process.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	submissionsStarted  int64
	submissionsRejected int64

	transfersSucceeded int64
	transfersFailed    int64
	bytesUploaded      int64

	pollsStarted  int64
	pollTicks     int64
	emptyTicks    int64
	notFoundTicks int64
	fetchErrors   int64
	decodeErrors  int64
	resultsReady  int64
	pollsCanceled int64

	notificationsSent   int64
	notificationsFailed int64

	storageBackend string
	notFoundPolicy string
	adapter        string
}

// NewCollector creates a Collector with dimension labels.
// adapter may be empty when no notification adapter is configured.
func NewCollector(storageBackend, notFoundPolicy, adapter string) *Collector {
	return &Collector{
		storageBackend: storageBackend,
		notFoundPolicy: notFoundPolicy,
		adapter:        adapter,
	}
}

// add increments *field by n under the lock.
func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Submissions ---

// IncSubmissionStarted records an accepted submission.
func (c *Collector) IncSubmissionStarted() {
	if c == nil {
		return
	}
	c.add(&c.submissionsStarted, 1)
}

// IncSubmissionRejected records a submission refused by the single-flight guard.
func (c *Collector) IncSubmissionRejected() {
	if c == nil {
		return
	}
	c.add(&c.submissionsRejected, 1)
}

// --- Transfer ---

// IncTransferSucceeded records a transfer that produced a location.
func (c *Collector) IncTransferSucceeded() {
	if c == nil {
		return
	}
	c.add(&c.transfersSucceeded, 1)
}

// IncTransferFailed records a failed transfer.
func (c *Collector) IncTransferFailed() {
	if c == nil {
		return
	}
	c.add(&c.transfersFailed, 1)
}

// AddBytesUploaded records n bytes acknowledged by the store.
func (c *Collector) AddBytesUploaded(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.add(&c.bytesUploaded, n)
}

// --- Poller ---
// Tick counters are per fetch, not per timer fire: ticks dropped while a
// fetch is in flight are not counted.

// IncPollStarted records an Await call that started a timer.
func (c *Collector) IncPollStarted() {
	if c == nil {
		return
	}
	c.add(&c.pollsStarted, 1)
}

// IncPollTick records one fetch attempt.
func (c *Collector) IncPollTick() {
	if c == nil {
		return
	}
	c.add(&c.pollTicks, 1)
}

// IncEmptyTick records a fetch that returned an empty body.
func (c *Collector) IncEmptyTick() {
	if c == nil {
		return
	}
	c.add(&c.emptyTicks, 1)
}

// IncNotFoundTick records a not-found fetch that was retried.
func (c *Collector) IncNotFoundTick() {
	if c == nil {
		return
	}
	c.add(&c.notFoundTicks, 1)
}

// IncFetchError records a fetch error that ended polling.
func (c *Collector) IncFetchError() {
	if c == nil {
		return
	}
	c.add(&c.fetchErrors, 1)
}

// IncDecodeError records a result body that failed to decode.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.add(&c.decodeErrors, 1)
}

// IncResultReady records a successfully decoded result.
func (c *Collector) IncResultReady() {
	if c == nil {
		return
	}
	c.add(&c.resultsReady, 1)
}

// IncPollCanceled records polling stopped by cancellation.
func (c *Collector) IncPollCanceled() {
	if c == nil {
		return
	}
	c.add(&c.pollsCanceled, 1)
}

// --- Notification adapter ---

// IncNotificationSent records a published terminal event.
func (c *Collector) IncNotificationSent() {
	if c == nil {
		return
	}
	c.add(&c.notificationsSent, 1)
}

// IncNotificationFailed records a publish that failed after retries.
func (c *Collector) IncNotificationFailed() {
	if c == nil {
		return
	}
	c.add(&c.notificationsFailed, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		SubmissionsStarted:  c.submissionsStarted,
		SubmissionsRejected: c.submissionsRejected,

		TransfersSucceeded: c.transfersSucceeded,
		TransfersFailed:    c.transfersFailed,
		BytesUploaded:      c.bytesUploaded,

		PollsStarted:  c.pollsStarted,
		PollTicks:     c.pollTicks,
		EmptyTicks:    c.emptyTicks,
		NotFoundTicks: c.notFoundTicks,
		FetchErrors:   c.fetchErrors,
		DecodeErrors:  c.decodeErrors,
		ResultsReady:  c.resultsReady,
		PollsCanceled: c.pollsCanceled,

		NotificationsSent:   c.notificationsSent,
		NotificationsFailed: c.notificationsFailed,

		StorageBackend: c.storageBackend,
		NotFoundPolicy: c.notFoundPolicy,
		Adapter:        c.adapter,
	}
}
