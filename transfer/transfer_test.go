package transfer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/ferry/metrics"
	"github.com/pithecene-io/ferry/store"
	"github.com/pithecene-io/ferry/types"
	"github.com/pithecene-io/ferry/watch"
)

// scriptedWriter reports a fixed sequence of acknowledgments, then returns
// location or err.
type scriptedWriter struct {
	acks     []int64
	location string
	err      error
	// release, when set, blocks Write until closed or ctx is done.
	release chan struct{}

	mu    sync.Mutex
	calls []writeCall
}

type writeCall struct {
	container, key string
	size           int64
	opts           store.WriteOptions
}

func (w *scriptedWriter) Write(ctx context.Context, container, key string, body io.Reader, size int64, opts store.WriteOptions) (string, error) {
	w.mu.Lock()
	w.calls = append(w.calls, writeCall{container: container, key: key, size: size, opts: opts})
	w.mu.Unlock()

	for _, a := range w.acks {
		if opts.Progress != nil {
			opts.Progress(a, size)
		}
	}
	if w.release != nil {
		select {
		case <-w.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if w.err != nil {
		return "", w.err
	}
	_, _ = io.Copy(io.Discard, body)
	return w.location, nil
}

func request(name string, size int64) *types.UploadRequest {
	return &types.UploadRequest{Name: name, Size: size, Body: strings.NewReader(strings.Repeat("x", int(size)))}
}

func wait(t *testing.T, tr *Transfer) types.TransferOutcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	out, err := tr.Wait(ctx)
	if err != nil {
		t.Fatalf("timed out waiting for outcome: %v", err)
	}
	return out
}

func collect(tr *Transfer) []types.TransferProgress {
	var got []types.TransferProgress
	for p := range tr.Progress() {
		got = append(got, p)
	}
	return got
}

func TestSubmit_Success(t *testing.T) {
	w := &scriptedWriter{location: "https://b.s3.amazonaws.com/input/data.csv"}
	m := metrics.NewCollector("s3", "fail", "")
	c := New(Config{Container: "b/input", Visibility: store.VisibilityPublicRead, ContentType: "text/csv"}, w, WithMetrics(m))

	tr, err := c.Submit(t.Context(), request("data.csv", 100))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out := wait(t, tr)

	if !out.Succeeded() {
		t.Fatalf("outcome = %+v, want success", out)
	}
	if out.Location != "https://b.s3.amazonaws.com/input/data.csv" {
		t.Errorf("location = %q", out.Location)
	}

	call := w.calls[0]
	if call.container != "b/input" || call.key != "data.csv" || call.size != 100 {
		t.Errorf("write call = %+v", call)
	}
	if call.opts.Visibility != store.VisibilityPublicRead {
		t.Errorf("visibility = %q, want public-read", call.opts.Visibility)
	}
	if call.opts.ContentType != "text/csv" {
		t.Errorf("content type = %q, want config default", call.opts.ContentType)
	}

	s := m.Snapshot()
	if s.TransfersSucceeded != 1 || s.BytesUploaded != 100 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestSubmit_RequestContentTypeWins(t *testing.T) {
	w := &scriptedWriter{location: "loc"}
	c := New(Config{ContentType: "application/octet-stream"}, w)

	req := request("data.json", 2)
	req.ContentType = "application/json"
	tr, err := c.Submit(t.Context(), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	wait(t, tr)

	if got := w.calls[0].opts.ContentType; got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}
}

func TestSubmit_ProgressMonotonicAndBounded(t *testing.T) {
	// 5/1000 rounds to 1; the rewind to 200 and the overshoot past total
	// must not surface as decreasing or >100 values.
	w := &scriptedWriter{acks: []int64{5, 250, 200, 600, 600, 1200}, location: "loc"}
	c := New(Config{}, w)

	tr, err := c.Submit(t.Context(), request("big.bin", 1000))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := collect(tr)
	wait(t, tr)

	if len(got) == 0 {
		t.Fatal("expected at least one progress value")
	}
	last := -1
	for _, p := range got {
		if p.Percent < 0 || p.Percent > 100 {
			t.Errorf("percent %d out of bounds", p.Percent)
		}
		if p.Percent < last {
			t.Errorf("percent decreased: %d after %d", p.Percent, last)
		}
		last = p.Percent
	}
	if last != 100 {
		t.Errorf("last percent = %d, want 100", last)
	}
}

func TestProgressTracker_DropsRegressions(t *testing.T) {
	out := watch.New[types.TransferProgress]()
	p := &progressTracker{out: out}

	steps := []struct {
		acked   int64
		want    int
		publish bool
	}{
		{5, 1, true},
		{250, 25, true},
		{200, 0, false},
		{250, 0, false},
		{1000, 100, true},
		{1100, 0, false},
	}
	for _, step := range steps {
		p.observe(step.acked, 1000)
		select {
		case got := <-out.C():
			if !step.publish {
				t.Errorf("acked %d: unexpected publish %+v", step.acked, got)
			} else if got.Percent != step.want {
				t.Errorf("acked %d: percent = %d, want %d", step.acked, got.Percent, step.want)
			}
		default:
			if step.publish {
				t.Errorf("acked %d: expected publish", step.acked)
			}
		}
	}
}

func TestSubmit_Failure(t *testing.T) {
	storeErr := store.NewStorageError(store.ErrAccessDenied, "write", "b/input/data.csv", errors.New("AccessDenied"))
	w := &scriptedWriter{acks: []int64{10}, err: storeErr}
	m := metrics.NewCollector("s3", "fail", "")
	c := New(Config{Container: "b/input"}, w, WithMetrics(m))

	tr, err := c.Submit(t.Context(), request("data.csv", 100))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out := wait(t, tr)

	if out.Succeeded() {
		t.Fatal("expected failure outcome")
	}
	if out.Reason != types.ReasonTransfer {
		t.Errorf("reason = %q, want %q", out.Reason, types.ReasonTransfer)
	}
	if !errors.Is(out.Err, types.ErrTransfer) {
		t.Errorf("err = %v, want ErrTransfer", out.Err)
	}
	if !errors.Is(out.Err, store.ErrAccessDenied) {
		t.Errorf("err = %v, want store error in chain", out.Err)
	}
	if out.Location != "" {
		t.Errorf("location = %q, want empty", out.Location)
	}
	if m.Snapshot().TransfersFailed != 1 {
		t.Errorf("TransfersFailed = %d, want 1", m.Snapshot().TransfersFailed)
	}
}

func TestSubmit_InFlightGuard(t *testing.T) {
	w := &scriptedWriter{location: "loc", release: make(chan struct{})}
	c := New(Config{}, w)

	first, err := c.Submit(t.Context(), request("a.csv", 1))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := c.Submit(t.Context(), request("b.csv", 1)); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second submit: err = %v, want ErrInFlight", err)
	}

	close(w.release)
	if out := wait(t, first); !out.Succeeded() {
		t.Fatalf("first outcome = %+v", out)
	}

	w.release = nil
	second, err := c.Submit(t.Context(), request("b.csv", 1))
	if err != nil {
		t.Fatalf("submit after completion: %v", err)
	}
	wait(t, second)
}

func TestSubmit_Canceled(t *testing.T) {
	w := &scriptedWriter{location: "loc", release: make(chan struct{})}
	c := New(Config{}, w)

	ctx, cancel := context.WithCancel(t.Context())
	tr, err := c.Submit(ctx, request("a.csv", 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancel()

	out := wait(t, tr)
	if out.Reason != types.ReasonUploadCanceled {
		t.Errorf("reason = %q, want %q", out.Reason, types.ReasonUploadCanceled)
	}
	if !errors.Is(out.Err, types.ErrCanceled) {
		t.Errorf("err = %v, want ErrCanceled", out.Err)
	}
}

func TestSubmit_InvalidRequest(t *testing.T) {
	c := New(Config{}, &scriptedWriter{})
	tests := []struct {
		name string
		req  *types.UploadRequest
	}{
		{"nil", nil},
		{"no name", &types.UploadRequest{Body: strings.NewReader("x"), Size: 1}},
		{"no body", &types.UploadRequest{Name: "a"}},
		{"negative size", &types.UploadRequest{Name: "a", Body: strings.NewReader(""), Size: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Submit(t.Context(), tt.req); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	// A rejected request must not hold the guard.
	tr, err := c.Submit(t.Context(), request("ok.csv", 0))
	if err != nil {
		t.Fatalf("valid submit after rejects: %v", err)
	}
	wait(t, tr)
}

func TestOutcome_ZeroBeforeDone(t *testing.T) {
	w := &scriptedWriter{location: "loc", release: make(chan struct{})}
	c := New(Config{}, w)

	tr, err := c.Submit(t.Context(), request("a.csv", 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out := tr.Outcome(); out.Status != "" {
		t.Errorf("outcome before done = %+v, want zero", out)
	}
	close(w.release)
	wait(t, tr)
	if !tr.Outcome().Succeeded() {
		t.Errorf("outcome after done = %+v", tr.Outcome())
	}
}
