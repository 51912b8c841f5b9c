package ledger

import (
	"context"
	"math"
	"sync"

	id "boxoffice/pkg/domain"
)

// InMemory is a process-local ledger. Accounts spring into existence with a
// zero balance on first use.
type InMemory struct {
	mu       sync.Mutex
	balances map[id.AccountID]id.Amount
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[id.AccountID]id.Amount)}
}

// Credit adds amount to account out of thin air. Used for seeding balances.
func (l *InMemory) Credit(_ context.Context, account id.AccountID, amount id.Amount) error {
	if account == "" {
		return ErrInvalidAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balances[account]
	if amount > math.MaxUint64-current {
		return ErrInvalidAmount
	}
	l.balances[account] = current + amount
	return nil
}

func (l *InMemory) Balance(_ context.Context, account id.AccountID) (id.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

// Transfer applies a single transfer immediately.
func (l *InMemory) Transfer(_ context.Context, amount id.Amount, from, to id.AccountID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return applyTransfer(l.balances, l.balances, amount, from, to)
}

// Begin locks the ledger until the returned batch is committed or rolled back.
func (l *InMemory) Begin(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	return &memoryBatch{ledger: l, staged: make(map[id.AccountID]id.Amount)}, nil
}

type memoryBatch struct {
	ledger *InMemory
	staged map[id.AccountID]id.Amount
	closed bool
}

func (b *memoryBatch) Transfer(_ context.Context, amount id.Amount, from, to id.AccountID) error {
	if b.closed {
		return ErrBatchClosed
	}
	return applyTransfer(b.ledger.balances, b.staged, amount, from, to)
}

func (b *memoryBatch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}
	for account, balance := range b.staged {
		b.ledger.balances[account] = balance
	}
	b.close()
	return nil
}

func (b *memoryBatch) Rollback() error {
	if b.closed {
		return nil
	}
	b.close()
	return nil
}

func (b *memoryBatch) close() {
	b.closed = true
	b.staged = nil
	b.ledger.mu.Unlock()
}

// applyTransfer reads balances from staged first, then base, and writes the
// results to staged. Passing the same map for both applies in place.
func applyTransfer(base, staged map[id.AccountID]id.Amount, amount id.Amount, from, to id.AccountID) error {
	if err := validateTransfer(amount, from, to); err != nil {
		return err
	}
	read := func(account id.AccountID) id.Amount {
		if v, ok := staged[account]; ok {
			return v
		}
		return base[account]
	}
	fromBalance := read(from)
	if fromBalance < amount {
		return ErrInsufficientFunds
	}
	toBalance := read(to)
	if amount > math.MaxUint64-toBalance {
		return ErrInvalidAmount
	}
	staged[from] = fromBalance - amount
	staged[to] = toBalance + amount
	return nil
}
