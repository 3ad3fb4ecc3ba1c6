// Package poller waits for a named result object to appear in the output
// store.
//
// Await fetches the target once per tick on a fixed cadence. The first
// non-empty body that decodes as JSON ends polling with a result. An empty
// body keeps polling. Any fetch error ends polling unless the poller is
// configured to retry on not-found. The caller's context is the stop signal.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/pithecene-io/ferry/log"
	"github.com/pithecene-io/ferry/metrics"
	"github.com/pithecene-io/ferry/store"
	"github.com/pithecene-io/ferry/types"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 30 * time.Second

// ErrActive is returned by Await while another Await on the same Poller runs.
var ErrActive = errors.New("poll already active")

// NotFoundPolicy decides what a not-found fetch does.
type NotFoundPolicy string

const (
	// NotFoundFail ends polling with a fetch error (default).
	NotFoundFail NotFoundPolicy = "fail"
	// NotFoundRetry treats not-found like an empty body and keeps polling.
	NotFoundRetry NotFoundPolicy = "retry"
)

// ParseNotFoundPolicy validates a policy name. Empty selects NotFoundFail.
func ParseNotFoundPolicy(s string) (NotFoundPolicy, error) {
	switch NotFoundPolicy(s) {
	case "", NotFoundFail:
		return NotFoundFail, nil
	case NotFoundRetry:
		return NotFoundRetry, nil
	default:
		return "", fmt.Errorf("unknown not-found policy %q (valid: fail, retry)", s)
	}
}

// Config configures polling cadence and not-found handling.
type Config struct {
	// Interval is the fixed period between fetches (default 30s).
	Interval time.Duration
	// NotFound selects the not-found behavior (default fail).
	NotFound NotFoundPolicy
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the poller logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Poller) { p.metrics = m }
}

// Poller owns the await-result operation.
type Poller struct {
	config  Config
	reader  store.Reader
	logger  *log.Logger
	metrics *metrics.Collector

	active atomic.Bool
}

// New creates a poller reading through r.
func New(cfg Config, r store.Reader, opts ...Option) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NotFound == "" {
		cfg.NotFound = NotFoundFail
	}
	p := &Poller{config: cfg, reader: r}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewNop()
	}
	return p
}

// Await polls target until a result decodes, a terminal error occurs or ctx
// is done. The first fetch happens one interval after the call.
//
// Errors are *types.WorkflowError with kind ErrPollFetch, ErrDecode or
// ErrCanceled.
func (p *Poller) Await(ctx context.Context, target types.PollTarget) (*types.ResultPayload, error) {
	if !p.active.CompareAndSwap(false, true) {
		return nil, ErrActive
	}
	defer p.active.Store(false)

	logger := p.logger.With(map[string]any{"target": target.String()})
	p.metrics.IncPollStarted()
	logger.Info("polling started", map[string]any{
		"interval":  p.config.Interval.String(),
		"not_found": string(p.config.NotFound),
	})

	// A ticker drops ticks while the receiver is busy, so a slow fetch
	// never queues a second one.
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, p.canceled(ctx, target, logger)
		case <-ticker.C:
			payload, done, err := p.tick(ctx, target, logger)
			if done {
				return payload, err
			}
		}
	}
}

// tick performs one fetch. done reports whether polling ends.
func (p *Poller) tick(ctx context.Context, target types.PollTarget, logger *log.Logger) (*types.ResultPayload, bool, error) {
	p.metrics.IncPollTick()

	body, err := p.reader.Read(ctx, target.Container, target.Key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, p.canceled(ctx, target, logger)
		}
		if p.config.NotFound == NotFoundRetry && errors.Is(err, store.ErrNotFound) {
			p.metrics.IncNotFoundTick()
			logger.Debug("result not found yet", nil)
			return nil, false, nil
		}
		p.metrics.IncFetchError()
		logger.Error("result fetch failed", map[string]any{"error": err.Error()})
		return nil, true, types.NewWorkflowError(types.ErrPollFetch, target.Key, err)
	}

	if len(body) == 0 {
		p.metrics.IncEmptyTick()
		logger.Debug("result empty", nil)
		return nil, false, nil
	}

	payload, err := Decode(target.Key, body)
	if err != nil {
		p.metrics.IncDecodeError()
		logger.Error("result decode failed", map[string]any{
			"error": err.Error(),
			"bytes": len(body),
		})
		return nil, true, err
	}

	p.metrics.IncResultReady()
	logger.Info("result ready", map[string]any{"bytes": len(body)})
	return payload, true, nil
}

func (p *Poller) canceled(ctx context.Context, target types.PollTarget, logger *log.Logger) error {
	p.metrics.IncPollCanceled()
	logger.Info("polling canceled", nil)
	return types.NewWorkflowError(types.ErrCanceled, target.Key, context.Cause(ctx))
}

// Decode interprets body as a UTF-8 JSON document.
func Decode(key string, body []byte) (*types.ResultPayload, error) {
	if !utf8.Valid(body) {
		return nil, types.NewWorkflowError(types.ErrDecode, key, errors.New("body is not valid UTF-8"))
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, types.NewWorkflowError(types.ErrDecode, key, err)
	}
	raw := make([]byte, len(body))
	copy(raw, body)
	return &types.ResultPayload{Key: key, Data: data, Raw: raw}, nil
}
