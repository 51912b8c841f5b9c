// Package ledger holds account balances and moves value between them.
//
// Transfers are all-or-nothing: a transfer that cannot be covered leaves both
// balances untouched. Ledgers that can join a registry transaction implement
// Participant, so their transfers commit or roll back with the registry writes.
package ledger

import (
	"context"
	"errors"

	id "boxoffice/pkg/domain"
)

var (
	// ErrInsufficientFunds is returned when the source balance is below the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrSelfTransfer is returned when source and destination are the same account.
	ErrSelfTransfer = errors.New("source and destination accounts are the same")
	// ErrInvalidAmount is returned for zero amounts and balances that would overflow.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidAccount is returned for empty account identifiers.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrBatchClosed is returned when a batch is used after Commit or Rollback.
	ErrBatchClosed = errors.New("ledger batch already closed")
)

// Transferer is the minimal capability of any ledger.
type Transferer interface {
	Transfer(ctx context.Context, amount id.Amount, from, to id.AccountID) error
}

// Batch stages transfers until Commit. Rollback discards every staged transfer.
// Exactly one of Commit or Rollback must be called.
type Batch interface {
	Transferer
	Commit() error
	Rollback() error
}

// Participant is a ledger that can stage transfers inside a larger transaction.
type Participant interface {
	Begin(ctx context.Context) (Batch, error)
}

func validateTransfer(amount id.Amount, from, to id.AccountID) error {
	if from == "" || to == "" {
		return ErrInvalidAccount
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransfer
	}
	return nil
}
