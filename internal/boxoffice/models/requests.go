package models

import (
	id "boxoffice/pkg/domain"
)

// CreateShowRequest is the caller input for a new show.
type CreateShowRequest struct {
	Title        string       `json:"title"`
	MaxCapacity  uint32       `json:"max_capacity"`
	AdmissionFee id.Amount    `json:"admission_fee"`
	Showtime     id.Timestamp `json:"showtime"`
	VenueDetails string       `json:"venue_details"`
}

// Params returns normalized show params.
func (r CreateShowRequest) Params() ShowParams {
	p := ShowParams{
		Title:        r.Title,
		MaxCapacity:  r.MaxCapacity,
		AdmissionFee: r.AdmissionFee,
		Showtime:     r.Showtime,
		Venue:        r.VenueDetails,
	}
	p.Normalize()
	return p
}

type BuyPassRequest struct {
	WithProtection bool `json:"with_protection"`
}

type TransferPassRequest struct {
	NewHolder id.AccountID `json:"new_holder"`
}

type CreateShowResponse struct {
	ShowID id.ShowID `json:"show_id"`
}

type BuyPassResponse struct {
	PassID id.PassID `json:"pass_id"`
}

// PassResponse is the wire form of a pass. IsScanned and ProtectionUsed are
// derived from Status.
type PassResponse struct {
	Pass
	IsScanned      bool `json:"is_scanned"`
	ProtectionUsed bool `json:"protection_used"`
}

func NewPassResponse(p Pass) PassResponse {
	return PassResponse{
		Pass:           p,
		IsScanned:      p.IsScanned(),
		ProtectionUsed: p.ProtectionUsed(),
	}
}

type ShowPassesResponse struct {
	ShowID  id.ShowID   `json:"show_id"`
	PassIDs []id.PassID `json:"pass_ids"`
}

type VaultResponse struct {
	Premiums id.Amount `json:"premiums"`
}

type QuoteResponse struct {
	Price   id.Amount `json:"price"`
	Premium id.Amount `json:"premium"`
	RatePct uint64    `json:"rate_percent"`
	Offered bool      `json:"offered"`
}

type BalanceResponse struct {
	Account id.AccountID `json:"account"`
	Balance id.Amount    `json:"balance"`
}
