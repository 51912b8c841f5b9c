package models

import (
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
)

// PassStatus is the single-use gate shared by scan, refund and protection
// claim. Any status other than unused means the pass is consumed.
type PassStatus string

const (
	PassStatusUnused            PassStatus = "unused"
	PassStatusScanned           PassStatus = "scanned"
	PassStatusRefunded          PassStatus = "refunded"
	PassStatusProtectionClaimed PassStatus = "protection_claimed"
)

func (s PassStatus) IsValid() bool {
	switch s {
	case PassStatusUnused, PassStatusScanned, PassStatusRefunded, PassStatusProtectionClaimed:
		return true
	}
	return false
}

// CanTransitionTo allows only unused -> consumed.
func (s PassStatus) CanTransitionTo(next PassStatus) bool {
	return s == PassStatusUnused && next != PassStatusUnused && next.IsValid()
}

// Pass is a ticket bound to one show.
//
// Invariants:
//   - ShowID, TicketCost, HasProtection and SeatInfo are fixed at purchase
//   - Holder changes at most once; Resold records that it did
//   - Status leaves unused at most once
//   - ProtectionUsed implies HasProtection
type Pass struct {
	ID            id.PassID    `json:"id"`
	ShowID        id.ShowID    `json:"show_id"`
	Holder        id.AccountID `json:"holder"`
	Status        PassStatus   `json:"status"`
	Resold        bool         `json:"resold"`
	TicketCost    id.Amount    `json:"ticket_cost"`
	HasProtection bool         `json:"has_protection"`
	SeatInfo      string       `json:"seat_info"`
}

// NewPass mints a pass for show. TicketCost snapshots the admission fee only;
// the protection premium is never part of the refundable base.
func NewPass(passID id.PassID, show Show, holder id.AccountID, withProtection bool) (Pass, error) {
	if passID.IsNil() {
		return Pass{}, dErrors.New(dErrors.CodeInvariantViolation, "pass id must be allocated")
	}
	if holder.IsNil() {
		return Pass{}, dErrors.New(dErrors.CodeInvariantViolation, "pass holder is required")
	}
	return Pass{
		ID:            passID,
		ShowID:        show.ID,
		Holder:        holder,
		Status:        PassStatusUnused,
		TicketCost:    show.AdmissionFee,
		HasProtection: withProtection,
		SeatInfo:      show.Venue,
	}, nil
}

// IsScanned reports whether the single-use gate has been consumed, whether
// by entry, refund or protection claim.
func (p Pass) IsScanned() bool {
	return p.Status != PassStatusUnused
}

func (p Pass) ProtectionUsed() bool {
	return p.Status == PassStatusProtectionClaimed
}

func (p Pass) IsHolder(account id.AccountID) bool {
	return !account.IsNil() && p.Holder == account
}

// TransferTo hands the pass to newHolder and locks it against any further
// transfer.
func (p Pass) TransferTo(newHolder id.AccountID) (Pass, error) {
	if p.Resold {
		return p, dErrors.New(dErrors.CodeTransferBlocked, "pass has already been transferred")
	}
	if newHolder.IsNil() {
		return p, dErrors.New(dErrors.CodeInvalidParameters, "new holder is required")
	}
	p.Holder = newHolder
	p.Resold = true
	return p, nil
}

// Consume moves the pass out of unused.
func (p Pass) Consume(next PassStatus) (Pass, error) {
	if !p.Status.CanTransitionTo(next) {
		return p, dErrors.New(dErrors.CodeAlreadyFinalized, "pass has already been used")
	}
	if next == PassStatusProtectionClaimed && !p.HasProtection {
		return p, dErrors.New(dErrors.CodeNotProtected, "pass has no protection")
	}
	p.Status = next
	return p, nil
}
