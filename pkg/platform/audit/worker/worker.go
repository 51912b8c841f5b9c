// Package worker relays audit events from the durable outbox to the event
// stream.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "boxoffice/pkg/platform/audit"
	"boxoffice/pkg/platform/circuit"
)

// Outbox is the durable side of the relay.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink receives relayed events. The id is stable across redeliveries.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Worker polls the outbox and forwards entries in order. Delivery is at least
// once: an entry is marked only after the sink accepted it.
type Worker struct {
	outbox    Outbox
	sink      Sink
	breaker   *circuit.Breaker
	logger    *slog.Logger
	interval  time.Duration
	backoff   time.Duration
	batchSize int
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithInterval sets the poll interval while the sink is healthy.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithBackoff sets the poll interval while the breaker is open.
func WithBackoff(d time.Duration) Option {
	return func(w *Worker) {
		w.backoff = d
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

func NewWorker(outbox Outbox, sink Sink, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		sink:      sink,
		breaker:   circuit.New("audit-relay"),
		logger:    slog.New(slog.DiscardHandler),
		interval:  time.Second,
		backoff:   15 * time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled. Sink failures never stop the loop; they
// slow it down while the breaker is open.
func (w *Worker) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		n, err := w.RelayOnce(ctx)
		wait := w.interval
		switch {
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil
		case err != nil:
			useFallback, change := w.breaker.RecordFailure()
			if change.Opened {
				w.logger.ErrorContext(ctx, "audit relay circuit opened", "error", err)
			} else {
				w.logger.WarnContext(ctx, "audit relay failed", "error", err)
			}
			if useFallback {
				wait = w.backoff
			}
		default:
			if _, change := w.breaker.RecordSuccess(); change.Closed {
				w.logger.InfoContext(ctx, "audit relay circuit closed")
			}
			if n == w.batchSize {
				wait = 0
			}
		}
		timer.Reset(wait)
	}
}

// RelayOnce forwards one batch and returns how many entries were marked. A
// sink failure stops the batch; entries before it are still marked.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	published := make([]uuid.UUID, 0, len(entries))
	var sinkErr error
	for _, entry := range entries {
		if err := w.sink.AppendWithID(ctx, entry.ID, entry.Event); err != nil {
			sinkErr = err
			break
		}
		published = append(published, entry.ID)
	}
	if err := w.outbox.MarkPublished(ctx, published); err != nil {
		return 0, errors.Join(sinkErr, err)
	}
	return len(published), sinkErr
}
