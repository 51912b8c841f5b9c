package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "boxoffice/pkg/domain"
)

//go:embed schema.sql
var schema string

// pgCheckViolation is raised when a balance leaves the uint64 range.
const pgCheckViolation = "23514"

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres keeps balances in ledger_accounts and appends every transfer to
// ledger_entries. A Postgres bound to a *sql.Tx writes inside that transaction
// and never commits it; an unbound one runs each call in its own transaction.
type Postgres struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{tx: tx}
}

func (p *Postgres) run(ctx context.Context, fn func(q dbExecutor) error) error {
	if p.tx != nil {
		return fn(p.tx)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (p *Postgres) Balance(ctx context.Context, account id.AccountID) (id.Amount, error) {
	var q dbExecutor = p.db
	if p.tx != nil {
		q = p.tx
	}
	var raw string
	err := q.QueryRowContext(ctx, `SELECT balance::text FROM ledger_accounts WHERE account = $1`, string(account)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return parseBalance(raw)
}

func (p *Postgres) Credit(ctx context.Context, account id.AccountID, amount id.Amount) error {
	if account == "" {
		return ErrInvalidAccount
	}
	return p.run(ctx, func(q dbExecutor) error {
		return addBalance(ctx, q, account, amount)
	})
}

// Transfer locks both accounts in a stable order before moving funds.
func (p *Postgres) Transfer(ctx context.Context, amount id.Amount, from, to id.AccountID) error {
	if err := validateTransfer(amount, from, to); err != nil {
		return err
	}
	return p.run(ctx, func(q dbExecutor) error {
		balances, err := lockAccounts(ctx, q, from, to)
		if err != nil {
			return err
		}
		if balances[from] < amount {
			return ErrInsufficientFunds
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE ledger_accounts SET balance = balance - $2::numeric WHERE account = $1`,
			string(from), formatAmount(amount),
		); err != nil {
			return fmt.Errorf("debit %s: %w", from, err)
		}
		if err := addBalance(ctx, q, to, amount); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO ledger_entries (id, debit_account, credit_account, amount) VALUES ($1, $2, $3, $4::numeric)`,
			uuid.New(), string(from), string(to), formatAmount(amount),
		); err != nil {
			return fmt.Errorf("record ledger entry: %w", err)
		}
		return nil
	})
}

func lockAccounts(ctx context.Context, q dbExecutor, accounts ...id.AccountID) (map[id.AccountID]id.Amount, error) {
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, string(a))
	}
	slices.Sort(names)
	rows, err := q.QueryContext(ctx,
		`SELECT account, balance::text FROM ledger_accounts WHERE account = ANY($1) ORDER BY account FOR UPDATE`,
		pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	defer rows.Close()

	balances := make(map[id.AccountID]id.Amount, len(accounts))
	for rows.Next() {
		var account, raw string
		if err := rows.Scan(&account, &raw); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		balance, err := parseBalance(raw)
		if err != nil {
			return nil, err
		}
		balances[id.AccountID(account)] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return balances, nil
}

func addBalance(ctx context.Context, q dbExecutor, account id.AccountID, amount id.Amount) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO ledger_accounts (account, balance) VALUES ($1, $2::numeric)
		 ON CONFLICT (account) DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance`,
		string(account), formatAmount(amount),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgCheckViolation {
			return ErrInvalidAmount
		}
		return fmt.Errorf("credit %s: %w", account, err)
	}
	return nil
}

// uint64 arguments with the high bit set are rejected by database/sql, so
// amounts travel as decimal text.
func formatAmount(a id.Amount) string {
	return strconv.FormatUint(uint64(a), 10)
}

func parseBalance(raw string) (id.Amount, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return id.Amount(v), nil
}
