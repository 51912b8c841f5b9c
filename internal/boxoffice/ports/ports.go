// Package ports defines the interfaces the boxoffice service depends on.
// Stores, the ledger and the audit sink are swapped per deployment.
package ports

import (
	"context"

	"boxoffice/internal/boxoffice/models"
	id "boxoffice/pkg/domain"
	"boxoffice/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Reader,Store,StoreTx,BalanceReader

// Reader is the read side of the registry state.
type Reader interface {
	// FindShow returns sentinel.ErrNotFound when showID was never allocated.
	FindShow(ctx context.Context, showID id.ShowID) (*models.Show, error)

	// FindPass returns sentinel.ErrNotFound when passID was never allocated.
	FindPass(ctx context.Context, passID id.PassID) (*models.Pass, error)

	// FindShowIndex returns an empty index for shows without passes.
	FindShowIndex(ctx context.Context, showID id.ShowID) (*models.ShowIndex, error)

	// LoadPool returns the accumulated insurance pool.
	LoadPool(ctx context.Context) (models.Pool, error)
}

// Store is the transaction-bound read/write view of the registry state.
// Identifiers are allocated inside the transaction so a rollback leaves no gap.
type Store interface {
	Reader

	NextShowID(ctx context.Context) (id.ShowID, error)
	NextPassID(ctx context.Context) (id.PassID, error)

	SaveShow(ctx context.Context, show *models.Show) error
	SavePass(ctx context.Context, pass *models.Pass) error
	SaveShowIndex(ctx context.Context, index *models.ShowIndex) error
	SavePool(ctx context.Context, pool models.Pool) error
}

// Ledger moves value between accounts.
type Ledger interface {
	// Transfer moves amount from one account to another. It fails without
	// side effects when the source cannot cover the amount.
	Transfer(ctx context.Context, amount id.Amount, from, to id.AccountID) error
}

// StoreTx runs registry mutations together with their ledger transfers as one
// atomic unit. If fn returns an error, neither the store writes nor the
// transfers made through the supplied ledger are observable afterwards.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store, ledger Ledger) error) error
	View(ctx context.Context, fn func(store Reader) error) error
}

// BalanceReader reports ledger balances for the read-only account endpoint.
type BalanceReader interface {
	Balance(ctx context.Context, account id.AccountID) (id.Amount, error)
}

// AuditPublisher emits audit events for committed operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
