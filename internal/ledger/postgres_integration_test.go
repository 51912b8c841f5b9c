//go:build integration

package ledger_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"boxoffice/internal/ledger"
	id "boxoffice/pkg/domain"
	"boxoffice/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	ledger   *ledger.Postgres
	ctx      context.Context
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(ledger.Migrate(s.ctx, s.postgres.DB))
	s.ledger = ledger.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "ledger_entries", "ledger_accounts"))
}

func (s *PostgresLedgerSuite) balance(account id.AccountID) id.Amount {
	b, err := s.ledger.Balance(s.ctx, account)
	s.Require().NoError(err)
	return b
}

func (s *PostgresLedgerSuite) TestTransfer() {
	s.Require().NoError(s.ledger.Credit(s.ctx, "alice", 1000))

	s.Require().NoError(s.ledger.Transfer(s.ctx, 400, "alice", "bob"))
	s.Equal(id.Amount(600), s.balance("alice"))
	s.Equal(id.Amount(400), s.balance("bob"))

	s.ErrorIs(s.ledger.Transfer(s.ctx, 601, "alice", "bob"), ledger.ErrInsufficientFunds)
	s.ErrorIs(s.ledger.Transfer(s.ctx, 1, "nobody", "bob"), ledger.ErrInsufficientFunds)
	s.Equal(id.Amount(600), s.balance("alice"))

	var entries int
	s.Require().NoError(s.postgres.DB.QueryRowContext(s.ctx, `SELECT count(*) FROM ledger_entries`).Scan(&entries))
	s.Equal(1, entries)
}

func (s *PostgresLedgerSuite) TestFullRangeBalances() {
	s.Require().NoError(s.ledger.Credit(s.ctx, "whale", math.MaxUint64))
	s.Equal(id.Amount(math.MaxUint64), s.balance("whale"))
	s.ErrorIs(s.ledger.Credit(s.ctx, "whale", 1), ledger.ErrInvalidAmount)
}

func (s *PostgresLedgerSuite) TestTxBoundLedgerRollsBack() {
	s.Require().NoError(s.ledger.Credit(s.ctx, "alice", 100))

	tx, err := s.postgres.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	bound := ledger.NewPostgresTx(tx)
	s.Require().NoError(bound.Transfer(s.ctx, 100, "alice", "host"))
	s.Require().NoError(tx.Rollback())

	s.Equal(id.Amount(100), s.balance("alice"))
	s.Equal(id.Amount(0), s.balance("host"))
}

func (s *PostgresLedgerSuite) TestConcurrentTransfersConserveTotal() {
	s.Require().NoError(s.ledger.Credit(s.ctx, "alice", 500))
	s.Require().NoError(s.ledger.Credit(s.ctx, "bob", 500))

	var wg sync.WaitGroup
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := id.AccountID("alice"), id.AccountID("bob")
			if i%2 == 0 {
				from, to = to, from
			}
			_ = s.ledger.Transfer(s.ctx, 7, from, to)
		}()
	}
	wg.Wait()

	s.Equal(id.Amount(1000), s.balance("alice")+s.balance("bob"))
}
