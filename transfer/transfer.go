// Package transfer pushes a single file into the destination store and
// reports progress until the store confirms or rejects the write.
//
// A Controller accepts one submission at a time. Each accepted submission
// yields a Transfer whose Progress channel carries the latest percentage
// and whose Outcome is produced exactly once, after Done is closed.
package transfer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pithecene-io/ferry/log"
	"github.com/pithecene-io/ferry/metrics"
	"github.com/pithecene-io/ferry/store"
	"github.com/pithecene-io/ferry/types"
	"github.com/pithecene-io/ferry/watch"
)

// ErrInFlight is returned by Submit while a previous transfer is running.
var ErrInFlight = errors.New("transfer already in flight")

// Config configures the destination of uploads.
type Config struct {
	// Container is the destination container joined with the input subpath.
	Container string
	// Visibility is the access level applied to uploaded objects.
	Visibility store.Visibility
	// ContentType is used when the request carries none.
	ContentType string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the submit-file operation.
type Controller struct {
	config  Config
	writer  store.Writer
	logger  *log.Logger
	metrics *metrics.Collector

	inFlight atomic.Bool
}

// New creates a transfer controller writing through w.
func New(cfg Config, w store.Writer, opts ...Option) *Controller {
	c := &Controller{config: cfg, writer: w}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewNop()
	}
	return c
}

// Transfer is one in-flight upload.
type Transfer struct {
	progress *watch.Value[types.TransferProgress]
	done     chan struct{}
	outcome  types.TransferOutcome
}

// Progress returns a latest-value channel of progress updates.
// Values are non-decreasing. The channel is closed before Done.
func (t *Transfer) Progress() <-chan types.TransferProgress {
	return t.progress.C()
}

// Done is closed once the outcome is available.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Outcome returns the transfer outcome. Valid only after Done is closed.
func (t *Transfer) Outcome() types.TransferOutcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return types.TransferOutcome{}
	}
}

// Wait blocks until the outcome is available or ctx is done.
func (t *Transfer) Wait(ctx context.Context) (types.TransferOutcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return types.TransferOutcome{}, ctx.Err()
	}
}

// Submit starts uploading req and returns immediately.
// The upload stops early if ctx is canceled.
func (c *Controller) Submit(ctx context.Context, req *types.UploadRequest) (*Transfer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}

	t := &Transfer{
		progress: watch.New[types.TransferProgress](),
		done:     make(chan struct{}),
	}
	go c.run(ctx, req, t)
	return t, nil
}

func validate(req *types.UploadRequest) error {
	switch {
	case req == nil:
		return errors.New("upload request is required")
	case req.Name == "":
		return errors.New("upload request name is required")
	case req.Body == nil:
		return errors.New("upload request body is required")
	case req.Size < 0:
		return errors.New("upload request size must be >= 0")
	}
	return nil
}

func (c *Controller) run(ctx context.Context, req *types.UploadRequest, t *Transfer) {
	logger := c.logger.With(map[string]any{
		"file":      req.Name,
		"container": c.config.Container,
	})
	logger.Info("transfer started", map[string]any{"size": req.Size})

	contentType := req.ContentType
	if contentType == "" {
		contentType = c.config.ContentType
	}

	tracker := &progressTracker{out: t.progress}
	location, err := c.writer.Write(ctx, c.config.Container, req.Name, req.Body, req.Size, store.WriteOptions{
		ContentType: contentType,
		Visibility:  c.config.Visibility,
		Progress:    tracker.observe,
	})

	if err != nil {
		t.outcome = c.failure(ctx, req.Name, err)
		c.metrics.IncTransferFailed()
		logger.Error("transfer failed", map[string]any{
			"reason": t.outcome.Reason,
			"error":  err.Error(),
		})
	} else {
		t.outcome = types.TransferOutcome{Status: types.TransferSuccess, Location: location}
		c.metrics.IncTransferSucceeded()
		c.metrics.AddBytesUploaded(req.Size)
		logger.Info("transfer completed", map[string]any{"location": location})
	}

	// Release the guard before Done so an observer of Done may submit again.
	c.inFlight.Store(false)
	t.progress.Close()
	close(t.done)
}

func (c *Controller) failure(ctx context.Context, name string, err error) types.TransferOutcome {
	if ctx.Err() != nil {
		return types.TransferOutcome{
			Status: types.TransferFailure,
			Reason: types.ReasonUploadCanceled,
			Err:    types.NewWorkflowError(types.ErrCanceled, name, err),
		}
	}
	return types.TransferOutcome{
		Status: types.TransferFailure,
		Reason: types.ReasonTransfer,
		Err:    types.NewWorkflowError(types.ErrTransfer, name, err),
	}
}

// progressTracker turns store acknowledgments into non-decreasing
// TransferProgress values. Acknowledgments that go backwards (a rewound
// body on retry) are dropped.
type progressTracker struct {
	mu    sync.Mutex
	acked int64
	out   *watch.Value[types.TransferProgress]
}

func (p *progressTracker) observe(acked, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total > 0 && acked > total {
		acked = total
	}
	if acked <= p.acked {
		return
	}
	p.acked = acked
	p.out.Publish(types.TransferProgress{
		Percent:    types.Percent(acked, total),
		BytesSent:  acked,
		TotalBytes: total,
	})
}
