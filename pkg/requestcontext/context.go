// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values: the calling principal, the logical time and the
// request id.
//
// Middleware sets the values; services read them:
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject them directly:
//
//	ctx = requestcontext.WithCaller(ctx, "alice")
//	ctx = requestcontext.WithTime(ctx, 100)
package requestcontext

import (
	"context"

	id "boxoffice/pkg/domain"
)

type (
	callerKey      struct{}
	logicalTimeKey struct{}
	requestIDKey   struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyLogicalTime = logicalTimeKey{}
	ContextKeyRequestID   = requestIDKey{}
)

// -----------------------------------------------------------------------------
// Identity
// -----------------------------------------------------------------------------

// Caller returns the authenticated principal, or the empty account when the
// request is anonymous.
func Caller(ctx context.Context) id.AccountID {
	if caller, ok := ctx.Value(ContextKeyCaller).(id.AccountID); ok {
		return caller
	}
	return ""
}

// WithCaller injects the calling principal.
func WithCaller(ctx context.Context, caller id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// -----------------------------------------------------------------------------
// Logical time
// -----------------------------------------------------------------------------

// Now returns the logical time captured for this call. Contexts without one
// observe genesis (zero).
func Now(ctx context.Context) id.Timestamp {
	if t, ok := ctx.Value(ContextKeyLogicalTime).(id.Timestamp); ok {
		return t
	}
	return 0
}

// WithTime injects a logical time. All operations within one call see the
// same value.
func WithTime(ctx context.Context, t id.Timestamp) context.Context {
	return context.WithValue(ctx, ContextKeyLogicalTime, t)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
