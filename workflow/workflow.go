// Package workflow sequences an upload and the wait for its result.
//
// A Workflow runs at most one submission at a time. Each submission moves
// through uploading, awaiting_result and then completed or failed. The
// poller is started exactly once, and only after the transfer succeeds.
// State changes are observable through State, Watch and observers.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/ferry/adapter"
	"github.com/pithecene-io/ferry/log"
	"github.com/pithecene-io/ferry/metrics"
	"github.com/pithecene-io/ferry/transfer"
	"github.com/pithecene-io/ferry/types"
	"github.com/pithecene-io/ferry/watch"
)

var (
	// ErrSubmissionActive is returned by Submit while a submission is in flight.
	ErrSubmissionActive = errors.New("submission already in flight")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("workflow closed")
)

// Transferrer starts an upload. Satisfied by *transfer.Controller.
type Transferrer interface {
	Submit(ctx context.Context, req *types.UploadRequest) (*transfer.Transfer, error)
}

// Awaiter polls for a result. Satisfied by *poller.Poller.
type Awaiter interface {
	Await(ctx context.Context, target types.PollTarget) (*types.ResultPayload, error)
}

// Config configures a Workflow.
type Config struct {
	// Target is the result object awaited after every successful upload.
	Target types.PollTarget
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(w *Workflow) { w.metrics = m }
}

// WithObserver registers fn to receive every state change, synchronously
// and in transition order. fn must not call Submit.
func WithObserver(fn func(types.WorkflowState)) Option {
	return func(w *Workflow) { w.observers = append(w.observers, fn) }
}

// WithAdapter publishes a ResultEvent on every terminal state.
func WithAdapter(a adapter.Adapter) Option {
	return func(w *Workflow) { w.adapter = a }
}

// Workflow is the upload-then-await-result state machine.
type Workflow struct {
	config    Config
	transfer  Transferrer
	awaiter   Awaiter
	logger    *log.Logger
	metrics   *metrics.Collector
	adapter   adapter.Adapter
	observers []func(types.WorkflowState)
	newID     func() string
	now       func() time.Time

	mu     sync.Mutex
	state  types.WorkflowState
	active bool
	closed bool
	cancel context.CancelFunc
	done   chan struct{} // closed when the current submission is terminal

	watch *watch.Value[types.WorkflowState]
	wg    sync.WaitGroup
}

// New creates an idle workflow.
func New(cfg Config, t Transferrer, a Awaiter, opts ...Option) *Workflow {
	w := &Workflow{
		config:   cfg,
		transfer: t,
		awaiter:  a,
		newID:    uuid.NewString,
		now:      time.Now,
		state:    types.Idle(),
		watch:    watch.New[types.WorkflowState](),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.NewNop()
	}
	return w
}

// Submit accepts req and starts the upload in the background.
// It returns the submission ID, or ErrSubmissionActive if a submission is
// already in flight. A prior terminal state is replaced.
func (w *Workflow) Submit(ctx context.Context, req *types.UploadRequest) (string, error) {
	if req == nil {
		return "", errors.New("upload request is required")
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", ErrClosed
	}
	if w.active {
		w.mu.Unlock()
		w.metrics.IncSubmissionRejected()
		w.logger.Warn("submission rejected", map[string]any{
			"file":   req.Name,
			"reason": ErrSubmissionActive.Error(),
		})
		return "", ErrSubmissionActive
	}

	id := w.newID()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.active = true
	w.cancel = cancel
	w.done = done
	w.wg.Add(1)
	w.mu.Unlock()

	w.metrics.IncSubmissionStarted()
	w.transition(types.WorkflowState{
		Kind:         types.StateUploading,
		SubmissionID: id,
		File:         req.Name,
	})

	go w.run(runCtx, cancel, id, req, done)
	return id, nil
}

// State returns the current state.
func (w *Workflow) State() types.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Watch returns a latest-value channel of state changes.
// It is closed by Close.
func (w *Workflow) Watch() <-chan types.WorkflowState {
	return w.watch.C()
}

// Wait blocks until the current submission is terminal or ctx is done.
// With no submission it returns the idle state immediately.
func (w *Workflow) Wait(ctx context.Context) (types.WorkflowState, error) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		return w.State(), nil
	}
	select {
	case <-done:
		return w.State(), nil
	case <-ctx.Done():
		return w.State(), ctx.Err()
	}
}

// Cancel stops the in-flight transfer or poll. The submission ends failed.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

// Close cancels any in-flight submission and waits for it to finish.
// Submit fails with ErrClosed afterwards.
func (w *Workflow) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.watch.Close()
	return nil
}

func (w *Workflow) run(ctx context.Context, cancel context.CancelFunc, id string, req *types.UploadRequest, done chan struct{}) {
	defer w.wg.Done()
	defer cancel()

	started := w.now()
	logger := w.logger.WithSubmission(id, req.Name)
	logger.Info("submission started", map[string]any{"size": req.Size})

	final := w.execute(ctx, id, req, logger)
	w.transition(final)

	fields := map[string]any{
		"state":       string(final.Kind),
		"duration_ms": w.now().Sub(started).Milliseconds(),
	}
	if final.Kind == types.StateFailed {
		fields["reason"] = final.Reason
		fields["detail"] = final.Detail
		logger.Warn("submission failed", fields)
	} else {
		logger.Info("submission completed", fields)
	}

	w.notify(ctx, final, started, logger)

	w.mu.Lock()
	w.active = false
	w.cancel = nil
	w.mu.Unlock()
	close(done)
}

// execute runs transfer then poll and returns the terminal state.
// Intermediate states are published as they happen.
func (w *Workflow) execute(ctx context.Context, id string, req *types.UploadRequest, logger *log.Logger) types.WorkflowState {
	base := types.WorkflowState{SubmissionID: id, File: req.Name}

	t, err := w.transfer.Submit(ctx, req)
	if err != nil {
		return failed(base, types.ReasonTransfer, err)
	}

	for p := range t.Progress() {
		s := base
		s.Kind = types.StateUploading
		s.Progress = p.Percent
		w.transition(s)
	}
	<-t.Done()

	outcome := t.Outcome()
	if !outcome.Succeeded() {
		return failed(base, outcome.Reason, outcome.Err)
	}

	base.Location = outcome.Location
	awaiting := base
	awaiting.Kind = types.StateAwaitingResult
	awaiting.Progress = 100
	w.transition(awaiting)
	logger.Info("awaiting result", map[string]any{
		"location": outcome.Location,
		"target":   w.config.Target.String(),
	})

	payload, err := w.awaiter.Await(ctx, w.config.Target)
	if err != nil {
		return failed(awaiting, types.Reason(err), err)
	}

	completed := awaiting
	completed.Kind = types.StateCompleted
	completed.Result = payload
	return completed
}

func failed(from types.WorkflowState, reason string, err error) types.WorkflowState {
	s := from
	s.Kind = types.StateFailed
	s.Reason = reason
	s.Result = nil
	if err != nil {
		s.Detail = err.Error()
	}
	return s
}

// transition applies next if it is legal from the current state, then
// publishes it to Watch and observers. Illegal transitions are logged and
// dropped.
func (w *Workflow) transition(next types.WorkflowState) {
	w.mu.Lock()
	from := w.state.Kind
	if !types.CanTransition(from, next.Kind) {
		w.mu.Unlock()
		w.logger.Error("illegal state transition", map[string]any{
			"from":          string(from),
			"to":            string(next.Kind),
			"submission_id": next.SubmissionID,
		})
		return
	}
	w.state = next
	w.mu.Unlock()

	w.watch.Publish(next)
	for _, fn := range w.observers {
		fn(next)
	}
}

// notify publishes the terminal state through the adapter, if any.
// Failures are logged and counted; they never change state.
func (w *Workflow) notify(ctx context.Context, final types.WorkflowState, started time.Time, logger *log.Logger) {
	if w.adapter == nil {
		return
	}
	event := adapter.NewResultEvent(final, w.config.Target, started, w.now())

	// Canceled submissions are still reported.
	if err := w.adapter.Publish(context.WithoutCancel(ctx), event); err != nil {
		w.metrics.IncNotificationFailed()
		logger.Error("notification failed", map[string]any{
			"event_type": event.EventType,
			"error":      err.Error(),
		})
		return
	}
	w.metrics.IncNotificationSent()
	logger.Debug("notification sent", map[string]any{"event_type": event.EventType})
}
