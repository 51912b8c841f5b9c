package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/platform/idempotency"
	"boxoffice/internal/platform/metrics"
	"boxoffice/internal/platform/middleware"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/clock"
	"boxoffice/pkg/platform/httputil"
	"boxoffice/pkg/requestcontext"
)

// Service defines the ticketing operations exposed over HTTP.
type Service interface {
	CreateShow(ctx context.Context, req models.CreateShowRequest) (id.ShowID, error)
	TerminateShow(ctx context.Context, showID id.ShowID) error
	GetShow(ctx context.Context, showID id.ShowID) (models.Show, error)
	GetShowPasses(ctx context.Context, showID id.ShowID) ([]id.PassID, error)
	BuyPass(ctx context.Context, showID id.ShowID, withProtection bool) (id.PassID, error)
	GetPass(ctx context.Context, passID id.PassID) (models.Pass, error)
	TransferPass(ctx context.Context, passID id.PassID, newHolder id.AccountID) error
	ScanPass(ctx context.Context, passID id.PassID) error
	RequestRefund(ctx context.Context, passID id.PassID) error
	ClaimProtectionRefund(ctx context.Context, passID id.PassID) error
	VaultBalance(ctx context.Context) (id.Amount, error)
	Quote(price id.Amount) models.QuoteResponse
	AccountBalance(ctx context.Context, account id.AccountID) (id.Amount, error)
}

// Handler serves the show, pass, insurance and ledger endpoints.
type Handler struct {
	logger         *slog.Logger
	boxoffice      Service
	metrics        *metrics.Metrics
	tokenValidator middleware.TokenValidator
	clock          clock.Clock
	idempotency    idempotency.Store
	idempotencyTTL time.Duration
	requestTimeout time.Duration
}

type Option func(*Handler)

// WithClock sets the logical time source stamped on every request.
func WithClock(c clock.Clock) Option {
	return func(h *Handler) {
		h.clock = c
	}
}

// WithIdempotency enables Idempotency-Key replay on mutating routes.
func WithIdempotency(store idempotency.Store, ttl time.Duration) Option {
	return func(h *Handler) {
		h.idempotency = store
		h.idempotencyTTL = ttl
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.requestTimeout = d
	}
}

// New creates a new boxoffice Handler.
func New(
	boxoffice Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	tokenValidator middleware.TokenValidator,
	opts ...Option) *Handler {
	h := &Handler{
		logger:         logger,
		boxoffice:      boxoffice,
		metrics:        metrics,
		tokenValidator: tokenValidator,
		clock:          clock.NewMonotonic(),
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the boxoffice routes with the chi router. Reads are
// public; every mutation and balance lookup requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(h.requestTimeout))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.RequestTime(h.clock))

	router.Get("/shows/{id}", h.handleGetShow)
	router.Get("/shows/{id}/passes", h.handleGetShowPasses)
	router.Get("/passes/{id}", h.handleGetPass)
	router.Get("/insurance/vault", h.handleVault)
	router.Get("/insurance/quote", h.handleQuote)

	router.Group(func(auth chi.Router) {
		auth.Use(middleware.RequireAuth(h.tokenValidator, h.logger))
		if h.idempotency != nil {
			auth.Use(idempotency.Middleware(h.idempotency, h.idempotencyTTL, h.logger, h.metrics))
		}
		auth.Post("/shows", h.handleCreateShow)
		auth.Post("/shows/{id}/terminate", h.handleTerminateShow)
		auth.Post("/shows/{id}/passes", h.handleBuyPass)
		auth.Post("/passes/{id}/transfer", h.handleTransferPass)
		auth.Post("/passes/{id}/scan", h.handleScanPass)
		auth.Post("/passes/{id}/refund", h.handleRefund)
		auth.Post("/passes/{id}/protection-claim", h.handleProtectionClaim)
		auth.Get("/ledger/accounts/{account}", h.handleAccountBalance)
	})

	r.Mount("/", router)
}

func (h *Handler) handleCreateShow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateShowRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "create_show", err)
		return
	}
	showID, err := h.boxoffice.CreateShow(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "create_show", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.CreateShowResponse{ShowID: showID})
}

func (h *Handler) handleGetShow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	showID, err := id.ParseShowID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "get_show", err)
		return
	}
	show, err := h.boxoffice.GetShow(ctx, showID)
	if err != nil {
		h.writeError(ctx, w, "get_show", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, show)
}

func (h *Handler) handleTerminateShow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	showID, err := id.ParseShowID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "terminate_show", err)
		return
	}
	if err := h.boxoffice.TerminateShow(ctx, showID); err != nil {
		h.writeError(ctx, w, "terminate_show", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetShowPasses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	showID, err := id.ParseShowID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "get_show_passes", err)
		return
	}
	passIDs, err := h.boxoffice.GetShowPasses(ctx, showID)
	if err != nil {
		h.writeError(ctx, w, "get_show_passes", err)
		return
	}
	if passIDs == nil {
		passIDs = []id.PassID{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.ShowPassesResponse{ShowID: showID, PassIDs: passIDs})
}

func (h *Handler) handleBuyPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	showID, err := id.ParseShowID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "buy_pass", err)
		return
	}
	var req models.BuyPassRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(ctx, w, "buy_pass", err)
		return
	}
	passID, err := h.boxoffice.BuyPass(ctx, showID, req.WithProtection)
	if err != nil {
		h.writeError(ctx, w, "buy_pass", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.BuyPassResponse{PassID: passID})
}

func (h *Handler) handleGetPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passID, err := id.ParsePassID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "get_pass", err)
		return
	}
	pass, err := h.boxoffice.GetPass(ctx, passID)
	if err != nil {
		h.writeError(ctx, w, "get_pass", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPassResponse(pass))
}

func (h *Handler) handleTransferPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passID, err := id.ParsePassID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "transfer_pass", err)
		return
	}
	var req models.TransferPassRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "transfer_pass", err)
		return
	}
	newHolder, err := id.ParseAccountID(string(req.NewHolder))
	if err != nil {
		h.writeError(ctx, w, "transfer_pass", err)
		return
	}
	if err := h.boxoffice.TransferPass(ctx, passID, newHolder); err != nil {
		h.writeError(ctx, w, "transfer_pass", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleScanPass(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, "scan_pass", h.boxoffice.ScanPass)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, "request_refund", h.boxoffice.RequestRefund)
}

func (h *Handler) handleProtectionClaim(w http.ResponseWriter, r *http.Request) {
	h.passAction(w, r, "claim_protection_refund", h.boxoffice.ClaimProtectionRefund)
}

// passAction runs a body-less pass operation and answers 204.
func (h *Handler) passAction(w http.ResponseWriter, r *http.Request, op string, action func(context.Context, id.PassID) error) {
	ctx := r.Context()
	passID, err := id.ParsePassID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, op, err)
		return
	}
	if err := action(ctx, passID); err != nil {
		h.writeError(ctx, w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	premiums, err := h.boxoffice.VaultBalance(ctx)
	if err != nil {
		h.writeError(ctx, w, "vault_balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.VaultResponse{Premiums: premiums})
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("price")
	if raw == "" {
		h.writeError(ctx, w, "quote", dErrors.New(dErrors.CodeBadRequest, "price is required"))
		return
	}
	price, err := id.ParseAmount(raw)
	if err != nil {
		h.writeError(ctx, w, "quote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.boxoffice.Quote(price))
}

// handleAccountBalance lets a caller read only their own balance.
func (h *Handler) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		h.writeError(ctx, w, "account_balance", err)
		return
	}
	if account != requestcontext.Caller(ctx) {
		h.writeError(ctx, w, "account_balance", dErrors.New(dErrors.CodeUnauthorized, "balances are visible to their owner only"))
		return
	}
	balance, err := h.boxoffice.AccountBalance(ctx, account)
	if err != nil {
		h.writeError(ctx, w, "account_balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.BalanceResponse{Account: account, Balance: balance})
}

// writeError logs at warn for rejected requests and error for failures, then
// writes the mapped response.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := httputil.StatusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "request failed",
		"operation", op,
		"code", dErrors.CodeOf(err),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

// decodeOptional decodes a JSON body if one was sent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := httputil.DecodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
