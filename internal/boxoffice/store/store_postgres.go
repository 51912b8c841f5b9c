package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"boxoffice/internal/boxoffice/models"
	id "boxoffice/pkg/domain"
	"boxoffice/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// Migrate creates the registry tables and seeds the sequence and pool rows.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate boxoffice schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore reads and writes registry rows through one transaction.
// A store created for writing locks every row it reads until the transaction
// ends.
type PostgresStore struct {
	q         dbExecutor
	forUpdate bool
}

// NewPostgresTx returns a store that locks rows it reads inside tx.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx, forUpdate: true}
}

// NewPostgresReader returns a store for plain reads through q.
func NewPostgresReader(q dbExecutor) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) lockClause() string {
	if s.forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresStore) FindShow(ctx context.Context, showID id.ShowID) (*models.Show, error) {
	query := `
		SELECT id, title, host, max_capacity, seats_taken, admission_fee::text,
		       showtime::text, is_terminated, venue_details
		FROM shows WHERE id = $1` + s.lockClause()

	var (
		rawID         int64
		host          string
		fee, showtime string
		show          models.Show
		maxCap, seats int64
	)
	err := s.q.QueryRowContext(ctx, query, int64(showID)).Scan(
		&rawID, &show.Title, &host, &maxCap, &seats, &fee, &showtime, &show.Terminated, &show.Venue,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find show: %w", err)
	}
	show.ID = id.ShowID(rawID)
	show.Host = id.AccountID(host)
	show.MaxCapacity = uint32(maxCap)
	show.SeatsTaken = uint32(seats)
	if show.AdmissionFee, err = parseUint[id.Amount](fee); err != nil {
		return nil, err
	}
	if show.Showtime, err = parseUint[id.Timestamp](showtime); err != nil {
		return nil, err
	}
	return &show, nil
}

func (s *PostgresStore) FindPass(ctx context.Context, passID id.PassID) (*models.Pass, error) {
	query := `
		SELECT id, show_id, holder, status, resold, ticket_cost::text, has_protection, seat_info
		FROM passes WHERE id = $1` + s.lockClause()

	var (
		rawID, showID int64
		holder        string
		status        string
		cost          string
		pass          models.Pass
	)
	err := s.q.QueryRowContext(ctx, query, int64(passID)).Scan(
		&rawID, &showID, &holder, &status, &pass.Resold, &cost, &pass.HasProtection, &pass.SeatInfo,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pass: %w", err)
	}
	pass.ID = id.PassID(rawID)
	pass.ShowID = id.ShowID(showID)
	pass.Holder = id.AccountID(holder)
	pass.Status = models.PassStatus(status)
	if !pass.Status.IsValid() {
		return nil, fmt.Errorf("find pass: unknown status %q", status)
	}
	if pass.TicketCost, err = parseUint[id.Amount](cost); err != nil {
		return nil, err
	}
	return &pass, nil
}

func (s *PostgresStore) FindShowIndex(ctx context.Context, showID id.ShowID) (*models.ShowIndex, error) {
	query := `SELECT pass_ids FROM show_passes WHERE show_id = $1` + s.lockClause()

	var raw pq.Int64Array
	err := s.q.QueryRowContext(ctx, query, int64(showID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.ShowIndex{ShowID: showID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find show index: %w", err)
	}
	index := &models.ShowIndex{ShowID: showID, PassIDs: make([]id.PassID, 0, len(raw))}
	for _, v := range raw {
		index.PassIDs = append(index.PassIDs, id.PassID(v))
	}
	return index, nil
}

func (s *PostgresStore) LoadPool(ctx context.Context) (models.Pool, error) {
	query := `SELECT premiums::text FROM insurance_pool WHERE id = 1` + s.lockClause()

	var raw string
	if err := s.q.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return models.Pool{}, fmt.Errorf("load insurance pool: %w", err)
	}
	premiums, err := parseUint[id.Amount](raw)
	if err != nil {
		return models.Pool{}, err
	}
	return models.Pool{Premiums: premiums}, nil
}

func (s *PostgresStore) NextShowID(ctx context.Context) (id.ShowID, error) {
	v, err := s.next(ctx, "show")
	return id.ShowID(v), err
}

func (s *PostgresStore) NextPassID(ctx context.Context) (id.PassID, error) {
	v, err := s.next(ctx, "pass")
	return id.PassID(v), err
}

// next advances a sequence row. Unlike a Postgres SEQUENCE the increment is
// rolled back with the transaction, so committed ids have no gaps.
func (s *PostgresStore) next(ctx context.Context, name string) (uint64, error) {
	var v int64
	err := s.q.QueryRowContext(ctx,
		`UPDATE boxoffice_sequences SET value = value + 1 WHERE name = $1 RETURNING value`, name,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence %s not initialised", name)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "numeric_value_out_of_range" {
			return 0, ErrIDSpaceExhausted
		}
		return 0, fmt.Errorf("advance %s sequence: %w", name, err)
	}
	return uint64(v), nil
}

func (s *PostgresStore) SaveShow(ctx context.Context, show *models.Show) error {
	if show == nil || show.ID.IsNil() {
		return errors.New("save show: missing id")
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shows (id, title, host, max_capacity, seats_taken, admission_fee, showtime, is_terminated, venue_details)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			seats_taken = EXCLUDED.seats_taken,
			is_terminated = EXCLUDED.is_terminated`,
		int64(show.ID), show.Title, string(show.Host), int64(show.MaxCapacity), int64(show.SeatsTaken),
		formatUint(show.AdmissionFee), formatUint(show.Showtime), show.Terminated, show.Venue,
	)
	if err != nil {
		return fmt.Errorf("save show: %w", err)
	}
	return nil
}

func (s *PostgresStore) SavePass(ctx context.Context, pass *models.Pass) error {
	if pass == nil || pass.ID.IsNil() {
		return errors.New("save pass: missing id")
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO passes (id, show_id, holder, status, resold, ticket_cost, has_protection, seat_info)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			holder = EXCLUDED.holder,
			status = EXCLUDED.status,
			resold = EXCLUDED.resold`,
		int64(pass.ID), int64(pass.ShowID), string(pass.Holder), string(pass.Status), pass.Resold,
		formatUint(pass.TicketCost), pass.HasProtection, pass.SeatInfo,
	)
	if err != nil {
		return fmt.Errorf("save pass: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveShowIndex(ctx context.Context, index *models.ShowIndex) error {
	if index == nil || index.ShowID.IsNil() {
		return errors.New("save show index: missing show id")
	}
	ids := make(pq.Int64Array, 0, len(index.PassIDs))
	for _, v := range index.PassIDs {
		ids = append(ids, int64(v))
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO show_passes (show_id, pass_ids) VALUES ($1, $2)
		ON CONFLICT (show_id) DO UPDATE SET pass_ids = EXCLUDED.pass_ids`,
		int64(index.ShowID), ids,
	)
	if err != nil {
		return fmt.Errorf("save show index: %w", err)
	}
	return nil
}

func (s *PostgresStore) SavePool(ctx context.Context, pool models.Pool) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE insurance_pool SET premiums = $1::numeric WHERE id = 1`, formatUint(pool.Premiums),
	)
	if err != nil {
		return fmt.Errorf("save insurance pool: %w", err)
	}
	return nil
}

// Amounts and timestamps span the full uint64 range, which database/sql
// cannot bind directly, so they travel as decimal text.
func formatUint[T ~uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

func parseUint[T ~uint64](raw string) (T, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", raw, err)
	}
	return T(v), nil
}
