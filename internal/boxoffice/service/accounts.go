package service

import (
	"context"

	"boxoffice/internal/boxoffice/ports"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
)

// WithBalances enables AccountBalance lookups.
func WithBalances(balances ports.BalanceReader) Option {
	return func(s *Service) {
		s.balances = balances
	}
}

// AccountBalance returns the ledger balance of account.
func (s *Service) AccountBalance(ctx context.Context, account id.AccountID) (id.Amount, error) {
	if s.balances == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "ledger balances are not available")
	}
	if account.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	balance, err := s.balances.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}
