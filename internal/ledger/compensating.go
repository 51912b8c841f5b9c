package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	id "boxoffice/pkg/domain"
)

// Compensating lets a ledger that only supports immediate transfers take part
// in a registry transaction. Transfers are applied as they happen and recorded;
// Rollback issues the reverse transfers newest first.
type Compensating struct {
	inner Transferer
	// serializes batches so compensation never interleaves with another batch
	mu sync.Mutex
}

func NewCompensating(inner Transferer) *Compensating {
	return &Compensating{inner: inner}
}

func (c *Compensating) Begin(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	return &compensatingBatch{parent: c}, nil
}

type journalEntry struct {
	amount   id.Amount
	from, to id.AccountID
}

type compensatingBatch struct {
	parent  *Compensating
	journal []journalEntry
	closed  bool
}

func (b *compensatingBatch) Transfer(ctx context.Context, amount id.Amount, from, to id.AccountID) error {
	if b.closed {
		return ErrBatchClosed
	}
	if err := b.parent.inner.Transfer(ctx, amount, from, to); err != nil {
		return err
	}
	b.journal = append(b.journal, journalEntry{amount: amount, from: from, to: to})
	return nil
}

func (b *compensatingBatch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}
	b.close()
	return nil
}

// Rollback reverses every applied transfer. Reversals run on a fresh context
// so a cancelled request still gets compensated.
func (b *compensatingBatch) Rollback() error {
	if b.closed {
		return nil
	}
	defer b.close()
	var errs []error
	for i := len(b.journal) - 1; i >= 0; i-- {
		e := b.journal[i]
		if err := b.parent.inner.Transfer(context.Background(), e.amount, e.to, e.from); err != nil {
			errs = append(errs, fmt.Errorf("reverse transfer %d %s->%s: %w", e.amount, e.from, e.to, err))
		}
	}
	return errors.Join(errs...)
}

func (b *compensatingBatch) close() {
	b.closed = true
	b.journal = nil
	b.parent.mu.Unlock()
}
