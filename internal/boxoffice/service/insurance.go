package service

import (
	"context"

	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/boxoffice/ports"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/audit"
	"boxoffice/pkg/requestcontext"
)

// ClaimProtectionRefund pays the ticket cost of a protected pass from the
// vault to its holder. Claims do not depend on the show being terminated.
func (s *Service) ClaimProtectionRefund(ctx context.Context, passID id.PassID) (err error) {
	ctx, done := s.instrument(ctx, "claim_protection")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var claimed models.Pass
	err = s.tx.RunInTx(ctx, func(store ports.Store, ledger ports.Ledger) error {
		pass, _, err := findPassAndShow(ctx, store, passID)
		if err != nil {
			return err
		}
		if !pass.IsHolder(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the holder can claim protection")
		}
		if !pass.HasProtection {
			return dErrors.New(dErrors.CodeNotProtected, "pass has no refund protection")
		}
		if pass.ProtectionUsed() {
			return dErrors.New(dErrors.CodeAlreadyClaimed, "protection has already been claimed")
		}
		next, err := pass.Consume(models.PassStatusProtectionClaimed)
		if err != nil {
			return err
		}
		if err := s.transfer(ctx, ledger, pass.TicketCost, s.cfg.VaultAccount, caller); err != nil {
			return err
		}
		if err := store.SavePass(ctx, &next); err != nil {
			return storeError(err, "pass")
		}
		claimed = next
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "protection claimed",
		"pass_id", passID,
		"amount", claimed.TicketCost,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementPassOutcome("protection_claimed")
		s.metrics.AddAmountMoved("claim", uint64(claimed.TicketCost))
	}
	s.emitAudit(ctx, audit.Event{
		Action:       string(audit.EventProtectionClaimed),
		ShowID:       claimed.ShowID,
		PassID:       passID,
		Counterparty: s.cfg.VaultAccount,
		Amount:       claimed.TicketCost,
	})
	return nil
}

// CostOfProtection prices refund protection for price at the configured rate.
func (s *Service) CostOfProtection(price id.Amount) id.Amount {
	return models.CostOfProtection(price, s.cfg.ProtectionRate)
}

// Quote reports the premium a buyer would pay for price and whether
// protection is currently offered.
func (s *Service) Quote(price id.Amount) models.QuoteResponse {
	return models.QuoteResponse{
		Price:   price,
		Premium: s.CostOfProtection(price),
		RatePct: s.cfg.ProtectionRate,
		Offered: s.cfg.ProtectionEnabled,
	}
}

// VaultBalance returns the total premiums collected. Claims do not reduce it.
func (s *Service) VaultBalance(ctx context.Context) (id.Amount, error) {
	var premiums id.Amount
	err := s.tx.View(ctx, func(store ports.Reader) error {
		pool, err := store.LoadPool(ctx)
		if err != nil {
			return lookupError(err, "insurance pool")
		}
		premiums = pool.Premiums
		return nil
	})
	return premiums, err
}
