package models

import (
	"strings"

	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
)

// CapacityCeiling is the largest max-capacity any deployment may allow.
const CapacityCeiling = 10000

// MaxTextLength bounds show titles and venue details, in bytes.
const MaxTextLength = 256

// ShowLimits are the deployment-time bounds checked at show creation.
type ShowLimits struct {
	MinAdmissionFee id.Amount
	MaxCapacity     uint32
}

// DefaultShowLimits returns the stock limits.
func DefaultShowLimits() ShowLimits {
	return ShowLimits{MinAdmissionFee: 100, MaxCapacity: CapacityCeiling}
}

// Show is an event definition owned by its host.
//
// Invariants:
//   - SeatsTaken <= MaxCapacity, and SeatsTaken never decreases
//   - Terminated only moves false -> true
//   - Host, AdmissionFee, Showtime and Venue never change after creation
//
// Show is a value: mutators return a new snapshot and leave the receiver
// untouched, so a rejected operation cannot leave a half-applied record.
type Show struct {
	ID           id.ShowID    `json:"id"`
	Title        string       `json:"title"`
	Host         id.AccountID `json:"host"`
	MaxCapacity  uint32       `json:"max_capacity"`
	SeatsTaken   uint32       `json:"seats_taken"`
	AdmissionFee id.Amount    `json:"admission_fee"`
	Showtime     id.Timestamp `json:"showtime"`
	Terminated   bool         `json:"is_terminated"`
	Venue        string       `json:"venue_details"`
}

// ShowParams are the caller-supplied fields of a new show.
type ShowParams struct {
	Title        string
	MaxCapacity  uint32
	AdmissionFee id.Amount
	Showtime     id.Timestamp
	Venue        string
}

// Normalize trims surrounding whitespace from free text.
func (p *ShowParams) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Venue = strings.TrimSpace(p.Venue)
}

// NewShow validates params against limits and the current logical time and
// returns a fresh show with no seats taken.
func NewShow(showID id.ShowID, host id.AccountID, p ShowParams, limits ShowLimits, now id.Timestamp) (Show, error) {
	if showID.IsNil() {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "show id must be allocated")
	}
	if host.IsNil() {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "show host is required")
	}
	if p.Title == "" {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "title cannot be empty")
	}
	if len(p.Title) > MaxTextLength {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "title is too long")
	}
	if p.MaxCapacity == 0 || p.MaxCapacity > limits.MaxCapacity {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "max capacity out of range")
	}
	if p.AdmissionFee < limits.MinAdmissionFee {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "admission fee below minimum")
	}
	if p.Showtime <= now {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "showtime must be in the future")
	}
	if p.Venue == "" {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "venue details cannot be empty")
	}
	if len(p.Venue) > MaxTextLength {
		return Show{}, dErrors.New(dErrors.CodeInvariantViolation, "venue details are too long")
	}
	return Show{
		ID:           showID,
		Title:        p.Title,
		Host:         host,
		MaxCapacity:  p.MaxCapacity,
		AdmissionFee: p.AdmissionFee,
		Showtime:     p.Showtime,
		Venue:        p.Venue,
	}, nil
}

func (s Show) IsHost(account id.AccountID) bool {
	return !account.IsNil() && s.Host == account
}

func (s Show) SoldOut() bool {
	return s.SeatsTaken >= s.MaxCapacity
}

// HasStarted reports whether sales are closed by time: now >= showtime.
func (s Show) HasStarted(now id.Timestamp) bool {
	return now >= s.Showtime
}

// SeatsLeft is the remaining capacity.
func (s Show) SeatsLeft() uint32 {
	if s.SoldOut() {
		return 0
	}
	return s.MaxCapacity - s.SeatsTaken
}

// WithSeatTaken returns the show with one more seat taken.
func (s Show) WithSeatTaken() (Show, error) {
	if s.SoldOut() {
		return s, dErrors.New(dErrors.CodeSoldOut, "show is sold out")
	}
	s.SeatsTaken++
	return s, nil
}

// WithTerminated returns the show marked terminated. Terminating twice is
// not an error.
func (s Show) WithTerminated() Show {
	s.Terminated = true
	return s
}
