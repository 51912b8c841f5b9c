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

// BuyPass sells one seat to the caller. The admission fee goes to the host
// and, for a protected pass, the premium goes to the vault. The seat, the
// pass, the show index entry, the pool total and both transfers commit
// together or not at all.
func (s *Service) BuyPass(ctx context.Context, showID id.ShowID, withProtection bool) (passID id.PassID, err error) {
	ctx, done := s.instrument(ctx, "buy_pass")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return 0, err
	}
	if withProtection && !s.cfg.ProtectionEnabled {
		return 0, dErrors.New(dErrors.CodeInvalidParameters, "refund protection is not offered")
	}
	now := requestcontext.Now(ctx)

	var (
		minted  models.Pass
		host    id.AccountID
		premium id.Amount
	)
	err = s.tx.RunInTx(ctx, func(store ports.Store, ledger ports.Ledger) error {
		show, err := store.FindShow(ctx, showID)
		if err != nil {
			return lookupError(err, "show")
		}
		if show.SoldOut() {
			return dErrors.New(dErrors.CodeSoldOut, "show is sold out")
		}
		if show.Terminated {
			return dErrors.New(dErrors.CodeShowTerminated, "show has been terminated")
		}
		if s.cfg.ProtectionEnabled && show.HasStarted(now) {
			return dErrors.New(dErrors.CodePastShowtime, "show has already started")
		}

		index, err := store.FindShowIndex(ctx, showID)
		if err != nil {
			return lookupError(err, "show index")
		}
		nextID, err := store.NextPassID(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate pass id")
		}
		nextIndex, err := index.Append(nextID)
		if err != nil {
			return err
		}

		if err := s.transfer(ctx, ledger, show.AdmissionFee, caller, show.Host); err != nil {
			return err
		}
		cost := id.Amount(0)
		if withProtection {
			cost = models.CostOfProtection(show.AdmissionFee, s.cfg.ProtectionRate)
		}
		if cost > 0 {
			if err := s.transfer(ctx, ledger, cost, caller, s.cfg.VaultAccount); err != nil {
				return err
			}
			pool, err := store.LoadPool(ctx)
			if err != nil {
				return lookupError(err, "insurance pool")
			}
			if pool, err = pool.Collect(cost); err != nil {
				return err
			}
			if err := store.SavePool(ctx, pool); err != nil {
				return storeError(err, "insurance pool")
			}
		}

		pass, err := models.NewPass(nextID, *show, caller, withProtection)
		if err != nil {
			return err
		}
		seated, err := show.WithSeatTaken()
		if err != nil {
			return err
		}
		if err := store.SaveShow(ctx, &seated); err != nil {
			return storeError(err, "show")
		}
		if err := store.SavePass(ctx, &pass); err != nil {
			return storeError(err, "pass")
		}
		if err := store.SaveShowIndex(ctx, &nextIndex); err != nil {
			return storeError(err, "show index")
		}
		minted, host, premium = pass, show.Host, cost
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "pass purchased",
		"show_id", showID,
		"pass_id", minted.ID,
		"protected", withProtection,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementPassesSold(withProtection)
		s.metrics.AddAmountMoved("admission", uint64(minted.TicketCost))
		s.metrics.AddAmountMoved("premium", uint64(premium))
	}
	s.emitAudit(ctx, audit.Event{
		Action:       string(audit.EventPassPurchased),
		ShowID:       showID,
		PassID:       minted.ID,
		Counterparty: host,
		Amount:       minted.TicketCost + premium,
	})
	return minted.ID, nil
}

// TransferPass hands the caller's pass to newHolder. A pass can change hands
// once.
func (s *Service) TransferPass(ctx context.Context, passID id.PassID, newHolder id.AccountID) (err error) {
	ctx, done := s.instrument(ctx, "transfer_pass")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var showID id.ShowID
	err = s.tx.RunInTx(ctx, func(store ports.Store, _ ports.Ledger) error {
		pass, err := store.FindPass(ctx, passID)
		if err != nil {
			return lookupError(err, "pass")
		}
		if !pass.IsHolder(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the holder can transfer the pass")
		}
		moved, err := pass.TransferTo(newHolder)
		if err != nil {
			return err
		}
		if err := store.SavePass(ctx, &moved); err != nil {
			return storeError(err, "pass")
		}
		showID = moved.ShowID
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "pass transferred",
		"pass_id", passID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementPassOutcome("transferred")
	}
	s.emitAudit(ctx, audit.Event{
		Action:       string(audit.EventPassTransferred),
		ShowID:       showID,
		PassID:       passID,
		Counterparty: newHolder,
	})
	return nil
}

// ScanPass admits the pass holder. Only the show host can scan.
func (s *Service) ScanPass(ctx context.Context, passID id.PassID) (err error) {
	ctx, done := s.instrument(ctx, "scan_pass")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var scanned models.Pass
	err = s.tx.RunInTx(ctx, func(store ports.Store, _ ports.Ledger) error {
		pass, show, err := findPassAndShow(ctx, store, passID)
		if err != nil {
			return err
		}
		if !show.IsHost(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the host can scan passes")
		}
		next, err := pass.Consume(models.PassStatusScanned)
		if err != nil {
			return err
		}
		if err := store.SavePass(ctx, &next); err != nil {
			return storeError(err, "pass")
		}
		scanned = next
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementPassOutcome("scanned")
	}
	s.emitAudit(ctx, audit.Event{
		Action:       string(audit.EventPassScanned),
		ShowID:       scanned.ShowID,
		PassID:       passID,
		Counterparty: scanned.Holder,
	})
	return nil
}

// RequestRefund returns the ticket cost from the host to the holder of a pass
// for a terminated show.
func (s *Service) RequestRefund(ctx context.Context, passID id.PassID) (err error) {
	ctx, done := s.instrument(ctx, "request_refund")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var (
		refunded models.Pass
		host     id.AccountID
	)
	err = s.tx.RunInTx(ctx, func(store ports.Store, ledger ports.Ledger) error {
		pass, show, err := findPassAndShow(ctx, store, passID)
		if err != nil {
			return err
		}
		if !pass.IsHolder(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the holder can request a refund")
		}
		if !show.Terminated {
			return dErrors.New(dErrors.CodeRefundNotEligible, "refunds open only after the show is terminated")
		}
		next, err := pass.Consume(models.PassStatusRefunded)
		if err != nil {
			return err
		}
		if err := s.transfer(ctx, ledger, pass.TicketCost, show.Host, caller); err != nil {
			return err
		}
		if err := store.SavePass(ctx, &next); err != nil {
			return storeError(err, "pass")
		}
		refunded, host = next, show.Host
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "pass refunded",
		"pass_id", passID,
		"amount", refunded.TicketCost,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementPassOutcome("refunded")
		s.metrics.AddAmountMoved("refund", uint64(refunded.TicketCost))
	}
	s.emitAudit(ctx, audit.Event{
		Action:       string(audit.EventPassRefunded),
		ShowID:       refunded.ShowID,
		PassID:       passID,
		Counterparty: host,
		Amount:       refunded.TicketCost,
	})
	return nil
}

// GetPass returns a snapshot of the pass.
func (s *Service) GetPass(ctx context.Context, passID id.PassID) (models.Pass, error) {
	var pass models.Pass
	err := s.tx.View(ctx, func(store ports.Reader) error {
		found, err := store.FindPass(ctx, passID)
		if err != nil {
			return lookupError(err, "pass")
		}
		pass = *found
		return nil
	})
	return pass, err
}

// GetShowPasses lists the passes issued for a show in issuance order.
func (s *Service) GetShowPasses(ctx context.Context, showID id.ShowID) ([]id.PassID, error) {
	var ids []id.PassID
	err := s.tx.View(ctx, func(store ports.Reader) error {
		if _, err := store.FindShow(ctx, showID); err != nil {
			return lookupError(err, "show")
		}
		index, err := store.FindShowIndex(ctx, showID)
		if err != nil {
			return lookupError(err, "show index")
		}
		ids = index.PassIDs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []id.PassID{}
	}
	return ids, nil
}

func findPassAndShow(ctx context.Context, store ports.Reader, passID id.PassID) (*models.Pass, *models.Show, error) {
	pass, err := store.FindPass(ctx, passID)
	if err != nil {
		return nil, nil, lookupError(err, "pass")
	}
	show, err := store.FindShow(ctx, pass.ShowID)
	if err != nil {
		return nil, nil, lookupError(err, "show")
	}
	return pass, show, nil
}
