package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "boxoffice/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryFinancial covers events that moved money. Long retention.
	CategoryFinancial EventCategory = "financial"

	// CategoryOperations covers state changes without a value transfer.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a committed operation. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Actor     id.AccountID  `json:"actor"`
	ShowID    id.ShowID     `json:"show_id,omitempty"`
	PassID    id.PassID     `json:"pass_id,omitempty"`
	// Counterparty is the other side of a transfer or the new pass holder.
	Counterparty id.AccountID `json:"counterparty,omitempty"`
	Amount       id.Amount    `json:"amount,omitempty"`
	RequestID    string       `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventShowCreated       AuditEvent = "show_created"
	EventShowTerminated    AuditEvent = "show_terminated"
	EventPassPurchased     AuditEvent = "pass_purchased"
	EventPassTransferred   AuditEvent = "pass_transferred"
	EventPassScanned       AuditEvent = "pass_scanned"
	EventPassRefunded      AuditEvent = "pass_refunded"
	EventProtectionClaimed AuditEvent = "protection_claimed"
	EventAccountCredited   AuditEvent = "account_credited"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPassPurchased:     CategoryFinancial,
	EventPassRefunded:      CategoryFinancial,
	EventProtectionClaimed: CategoryFinancial,
	EventAccountCredited:   CategoryFinancial,

	EventShowCreated:     CategoryOperations,
	EventShowTerminated:  CategoryOperations,
	EventPassTransferred: CategoryOperations,
	EventPassScanned:     CategoryOperations,
}

// Category returns the category for an event, defaulting to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is a durably stored event waiting to be relayed.
type OutboxEntry struct {
	ID    uuid.UUID
	Event Event
}
