package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"boxoffice/internal/boxoffice/ports"
	"boxoffice/internal/ledger"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// Postgres error classes that mean a concurrent transaction won.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// PostgresTx runs registry mutations and ledger transfers in one SERIALIZABLE
// transaction on the same connection.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTxRunner(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db, timeout: defaultTxTimeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(store ports.Store, ledger ports.Ledger) error) error {
	ctx, cancel, err := t.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return translateTxError(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(NewPostgresTx(tx), ledger.NewPostgresTx(tx)); err != nil {
		return translateTxError(err)
	}
	if err := tx.Commit(); err != nil {
		return translateTxError(err)
	}
	return nil
}

func (t *PostgresTx) View(ctx context.Context, fn func(store ports.Reader) error) error {
	ctx, cancel, err := t.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return translateTxError(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(NewPostgresReader(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *PostgresTx) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	return ctx, cancel, nil
}

// translateTxError reports lost serialization races as conflicts so callers
// can retry the whole operation. Domain errors pass through unchanged.
func translateTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected:
			return dErrors.Wrap(errors.Join(sentinel.ErrConflict, err), dErrors.CodeConflict, "concurrent update, retry the request")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
	}
	return err
}
