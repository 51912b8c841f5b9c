// Package idempotency replays the first response of a mutating request when a
// client retries it with the same Idempotency-Key.
package idempotency

import (
	"context"
	"time"
)

// Record is a completed response together with the fingerprint of the request
// that produced it.
type Record struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// Store keeps reservations and completed records.
//
// A key moves from absent to reserved (Reserve) and then either to completed
// (Save) or back to absent (Release). Entries expire after their TTL.
type Store interface {
	// Reserve claims key and reports whether this caller won it.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Load returns the completed record. ok is false while the key is only
	// reserved or has expired.
	Load(ctx context.Context, key string) (rec Record, ok bool, err error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
