package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"boxoffice/internal/platform/metrics"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/httputil"
	"boxoffice/pkg/requestcontext"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
	maxBodyBytes = 1 << 20
)

// Middleware replays the stored response for a repeated Idempotency-Key.
//
// Keys are scoped to the caller, method and path. Requests without the header
// and safe methods pass straight through. Responses with a 5xx status are not
// stored, so the client may retry them.
func Middleware(store Store, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" || isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Idempotency-Key is too long"))
				return
			}

			ctx := r.Context()
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			storageKey := digest(string(requestcontext.Caller(ctx)), r.Method, r.URL.Path, key)
			fingerprint := digest(string(body))

			reserved, err := store.Reserve(ctx, storageKey, ttl)
			if err != nil {
				logger.ErrorContext(ctx, "idempotency reserve failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency store unavailable"))
				return
			}
			if !reserved {
				replay(w, r, store, storageKey, fingerprint, logger, m)
				return
			}

			var captured bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)

			// Settle the key even if the client disconnects.
			bg := context.WithoutCancel(ctx)
			settled := false
			defer func() {
				if !settled {
					if err := store.Release(bg, storageKey); err != nil {
						logger.WarnContext(ctx, "idempotency release failed", "error", err)
					}
				}
			}()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			rec := Record{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			}
			if err := store.Save(bg, storageKey, rec, ttl); err != nil {
				logger.WarnContext(ctx, "idempotency save failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				return
			}
			settled = true
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store Store, storageKey, fingerprint string, logger *slog.Logger, m *metrics.Metrics) {
	ctx := r.Context()
	rec, ok, err := store.Load(ctx, storageKey)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "idempotency load failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency store unavailable"))
	case !ok:
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a request with this Idempotency-Key is still in progress"))
	case rec.Fingerprint != fingerprint:
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "Idempotency-Key was reused with a different request body"))
	default:
		m.IncrementIdempotentReplays()
		if rec.ContentType != "" {
			w.Header().Set("Content-Type", rec.ContentType)
		}
		w.Header().Set(HeaderReplayed, strconv.FormatBool(true))
		w.WriteHeader(rec.Status)
		_, _ = w.Write(rec.Body)
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// digest hashes parts with a separator that cannot appear in a header value.
func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
