//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "boxoffice/pkg/domain"
	audit "boxoffice/pkg/platform/audit"
	"boxoffice/pkg/testutil/containers"
)

type OutboxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *Store
}

func TestOutboxSuite(t *testing.T) {
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(Migrate(context.Background(), s.postgres.DB))
	s.store = New(s.postgres.DB)
}

func (s *OutboxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_outbox"))
}

func (s *OutboxSuite) TestAppendFetchMark() {
	ctx := context.Background()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action: string(audit.EventShowCreated), Actor: "host", ShowID: 1, Timestamp: ts,
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action: string(audit.EventPassPurchased), Actor: "alice", ShowID: 1, PassID: 1,
		Counterparty: "host", Amount: 1000, Timestamp: ts,
	}))

	entries, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(string(audit.EventShowCreated), entries[0].Event.Action)
	s.Equal(audit.CategoryOperations, entries[0].Event.Category)
	s.Equal(audit.CategoryFinancial, entries[1].Event.Category)
	s.Equal(id.Amount(1000), entries[1].Event.Amount)
	s.True(ts.Equal(entries[1].Event.Timestamp))

	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{entries[0].ID}))
	entries, err = s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(string(audit.EventPassPurchased), entries[0].Event.Action)

	s.Require().NoError(s.store.MarkPublished(ctx, nil))
}

func (s *OutboxSuite) TestListByShow() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: string(audit.EventShowCreated), ShowID: 1}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: string(audit.EventShowCreated), ShowID: 2}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: string(audit.EventShowTerminated), ShowID: 1}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: string(audit.EventAccountCredited), Actor: "alice"}))

	events, err := s.store.ListByShow(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventShowCreated), events[0].Action)
	s.Equal(string(audit.EventShowTerminated), events[1].Action)
}
