package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"boxoffice/internal/boxoffice/handler/mocks"
	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/platform/idempotency"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/clock"
	"boxoffice/pkg/platform/httputil"
	"boxoffice/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks

// tokenTable maps bearer tokens to principals.
type tokenTable map[string]id.AccountID

func (t tokenTable) ValidateToken(token string) (id.AccountID, error) {
	if caller, ok := t[token]; ok {
		return caller, nil
	}
	return "", errors.New("unknown token")
}

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger, nil, tokenTable{"host-token": "host", "alice-token": "alice"},
		WithClock(clock.Fixed(500)),
		WithIdempotency(idempotency.NewInMemoryStore(), time.Hour),
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *HandlerSuite) errorCode(rr *httptest.ResponseRecorder) string {
	var body httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func (s *HandlerSuite) TestCreateShow() {
	req := models.CreateShowRequest{
		Title:        "Matinee",
		MaxCapacity:  2,
		AdmissionFee: 1000,
		Showtime:     900,
		VenueDetails: "Main Stage",
	}

	s.Run("created", func() {
		s.service.EXPECT().CreateShow(gomock.Any(), req).DoAndReturn(
			func(ctx context.Context, _ models.CreateShowRequest) (id.ShowID, error) {
				s.Equal(id.AccountID("host"), requestcontext.Caller(ctx))
				s.Equal(id.Timestamp(500), requestcontext.Now(ctx))
				return 1, nil
			})

		rr := s.do(http.MethodPost, "/shows", "host-token", req)
		s.Equal(http.StatusCreated, rr.Code)
		var resp models.CreateShowResponse
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
		s.Equal(id.ShowID(1), resp.ShowID)
		s.NotEmpty(rr.Header().Get("X-Request-ID"))
	})

	s.Run("invalid parameters", func() {
		s.service.EXPECT().CreateShow(gomock.Any(), gomock.Any()).
			Return(id.ShowID(0), dErrors.New(dErrors.CodeInvalidParameters, "max capacity out of range"))

		rr := s.do(http.MethodPost, "/shows", "host-token", req)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("invalid_parameters", s.errorCode(rr))
	})

	s.Run("unknown fields rejected", func() {
		rr := s.do(http.MethodPost, "/shows", "host-token", map[string]any{"title": "x", "seats": 3})
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("bad_request", s.errorCode(rr))
	})

	s.Run("requires token", func() {
		rr := s.do(http.MethodPost, "/shows", "", req)
		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Equal("unauthenticated", s.errorCode(rr))
	})

	s.Run("rejects unknown token", func() {
		rr := s.do(http.MethodPost, "/shows", "forged", req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}

func (s *HandlerSuite) TestGetShow() {
	show := models.Show{ID: 7, Title: "Matinee", Host: "host", MaxCapacity: 2, AdmissionFee: 1000}

	s.Run("found", func() {
		s.service.EXPECT().GetShow(gomock.Any(), id.ShowID(7)).Return(show, nil)
		rr := s.do(http.MethodGet, "/shows/7", "", nil)
		s.Equal(http.StatusOK, rr.Code)
		var got models.Show
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &got))
		s.Equal(show, got)
	})

	s.Run("not found", func() {
		s.service.EXPECT().GetShow(gomock.Any(), id.ShowID(8)).
			Return(models.Show{}, dErrors.New(dErrors.CodeNotFound, "show not found"))
		rr := s.do(http.MethodGet, "/shows/8", "", nil)
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("bad id", func() {
		for _, path := range []string{"/shows/abc", "/shows/0", "/shows/-1"} {
			rr := s.do(http.MethodGet, path, "", nil)
			s.Equal(http.StatusBadRequest, rr.Code, path)
		}
	})
}

func (s *HandlerSuite) TestTerminateShow() {
	s.service.EXPECT().TerminateShow(gomock.Any(), id.ShowID(3)).Return(nil)
	rr := s.do(http.MethodPost, "/shows/3/terminate", "host-token", nil)
	s.Equal(http.StatusNoContent, rr.Code)

	s.service.EXPECT().TerminateShow(gomock.Any(), id.ShowID(3)).
		Return(dErrors.New(dErrors.CodeUnauthorized, "only the host may terminate"))
	rr = s.do(http.MethodPost, "/shows/3/terminate", "alice-token", nil)
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal("unauthorized", s.errorCode(rr))
}

func (s *HandlerSuite) TestGetShowPasses() {
	s.service.EXPECT().GetShowPasses(gomock.Any(), id.ShowID(1)).Return(nil, nil)
	rr := s.do(http.MethodGet, "/shows/1/passes", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"show_id":1,"pass_ids":[]}`, rr.Body.String())

	s.service.EXPECT().GetShowPasses(gomock.Any(), id.ShowID(2)).Return([]id.PassID{4, 5}, nil)
	rr = s.do(http.MethodGet, "/shows/2/passes", "", nil)
	s.JSONEq(`{"show_id":2,"pass_ids":[4,5]}`, rr.Body.String())
}

func (s *HandlerSuite) TestBuyPass() {
	s.Run("protected", func() {
		s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), true).Return(id.PassID(9), nil)
		rr := s.do(http.MethodPost, "/shows/1/passes", "alice-token", models.BuyPassRequest{WithProtection: true})
		s.Equal(http.StatusCreated, rr.Code)
		s.JSONEq(`{"pass_id":9}`, rr.Body.String())
	})

	s.Run("empty body buys unprotected", func() {
		s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), false).Return(id.PassID(10), nil)
		rr := s.do(http.MethodPost, "/shows/1/passes", "alice-token", nil)
		s.Equal(http.StatusCreated, rr.Code)
	})

	s.Run("sold out", func() {
		s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), false).
			Return(id.PassID(0), dErrors.New(dErrors.CodeSoldOut, "show is sold out"))
		rr := s.do(http.MethodPost, "/shows/1/passes", "alice-token", nil)
		s.Equal(http.StatusConflict, rr.Code)
		s.Equal("sold_out", s.errorCode(rr))
	})

	s.Run("transfer failure", func() {
		s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), false).
			Return(id.PassID(0), dErrors.New(dErrors.CodeTransferFailed, "value transfer failed"))
		rr := s.do(http.MethodPost, "/shows/1/passes", "alice-token", nil)
		s.Equal(http.StatusPaymentRequired, rr.Code)
	})

	s.Run("internal errors are not leaked", func() {
		s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), false).
			Return(id.PassID(0), dErrors.Wrap(errors.New("pq: connection reset"), dErrors.CodeInternal, "failed to save pass"))
		rr := s.do(http.MethodPost, "/shows/1/passes", "alice-token", nil)
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "pq:")
	})
}

func (s *HandlerSuite) TestBuyPassIsIdempotent() {
	s.service.EXPECT().BuyPass(gomock.Any(), id.ShowID(1), false).Return(id.PassID(11), nil).Times(1)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/shows/1/passes", nil)
		req.Header.Set("Authorization", "Bearer alice-token")
		req.Header.Set(idempotency.HeaderKey, "retry-1")
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	second := send()
	s.Equal(http.StatusCreated, first.Code)
	s.Equal(http.StatusCreated, second.Code)
	s.Equal(first.Body.String(), second.Body.String())
	s.Equal("true", second.Header().Get(idempotency.HeaderReplayed))
}

func (s *HandlerSuite) TestGetPass() {
	tests := []struct {
		name           string
		status         models.PassStatus
		wantScanned    bool
		wantProtection bool
	}{
		{name: "unused", status: models.PassStatusUnused},
		{name: "scanned", status: models.PassStatusScanned, wantScanned: true},
		{name: "refunded", status: models.PassStatusRefunded, wantScanned: true},
		{name: "protection claimed", status: models.PassStatusProtectionClaimed, wantScanned: true, wantProtection: true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			pass := models.Pass{ID: 4, ShowID: 1, Holder: "alice", Status: tt.status, TicketCost: 1000, HasProtection: true}
			s.service.EXPECT().GetPass(gomock.Any(), id.PassID(4)).Return(pass, nil)

			rr := s.do(http.MethodGet, "/passes/4", "", nil)
			s.Equal(http.StatusOK, rr.Code)

			var got models.PassResponse
			s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &got))
			s.Equal(pass, got.Pass)

			var raw map[string]any
			s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &raw))
			s.Equal(tt.wantScanned, raw["is_scanned"])
			s.Equal(tt.wantProtection, raw["protection_used"])
			s.Equal(string(tt.status), raw["status"])
		})
	}
}

func (s *HandlerSuite) TestTransferPass() {
	s.Run("transferred", func() {
		s.service.EXPECT().TransferPass(gomock.Any(), id.PassID(4), id.AccountID("bob")).Return(nil)
		rr := s.do(http.MethodPost, "/passes/4/transfer", "alice-token", models.TransferPassRequest{NewHolder: "bob"})
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("already resold", func() {
		s.service.EXPECT().TransferPass(gomock.Any(), id.PassID(4), id.AccountID("carol")).
			Return(dErrors.New(dErrors.CodeTransferBlocked, "pass was already transferred"))
		rr := s.do(http.MethodPost, "/passes/4/transfer", "alice-token", models.TransferPassRequest{NewHolder: "carol"})
		s.Equal(http.StatusConflict, rr.Code)
		s.Equal("transfer_blocked", s.errorCode(rr))
	})

	s.Run("invalid holder", func() {
		rr := s.do(http.MethodPost, "/passes/4/transfer", "alice-token", models.TransferPassRequest{NewHolder: "b o b"})
		s.Equal(http.StatusBadRequest, rr.Code)
		rr = s.do(http.MethodPost, "/passes/4/transfer", "alice-token", models.TransferPassRequest{})
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestPassActions() {
	tests := []struct {
		name   string
		path   string
		expect func(passID id.PassID) *gomock.Call
	}{
		{"scan", "/passes/4/scan", func(p id.PassID) *gomock.Call { return s.service.EXPECT().ScanPass(gomock.Any(), p) }},
		{"refund", "/passes/4/refund", func(p id.PassID) *gomock.Call { return s.service.EXPECT().RequestRefund(gomock.Any(), p) }},
		{"protection claim", "/passes/4/protection-claim", func(p id.PassID) *gomock.Call {
			return s.service.EXPECT().ClaimProtectionRefund(gomock.Any(), p)
		}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			tt.expect(4).Return(nil)
			rr := s.do(http.MethodPost, tt.path, "alice-token", nil)
			s.Equal(http.StatusNoContent, rr.Code)

			tt.expect(4).Return(dErrors.New(dErrors.CodeAlreadyFinalized, "pass is already finalized"))
			rr = s.do(http.MethodPost, tt.path, "alice-token", nil)
			s.Equal(http.StatusConflict, rr.Code)
			s.Equal("already_finalized", s.errorCode(rr))
		})
	}
}

func (s *HandlerSuite) TestInsurance() {
	s.service.EXPECT().VaultBalance(gomock.Any()).Return(id.Amount(150), nil)
	rr := s.do(http.MethodGet, "/insurance/vault", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"premiums":150}`, rr.Body.String())

	s.service.EXPECT().Quote(id.Amount(999)).
		Return(models.QuoteResponse{Price: 999, Premium: 49, RatePct: 5, Offered: true})
	rr = s.do(http.MethodGet, "/insurance/quote?price=999", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"price":999,"premium":49,"rate_percent":5,"offered":true}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/insurance/quote", "", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	rr = s.do(http.MethodGet, "/insurance/quote?price=-5", "", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestAccountBalance() {
	s.service.EXPECT().AccountBalance(gomock.Any(), id.AccountID("alice")).Return(id.Amount(42), nil)
	rr := s.do(http.MethodGet, "/ledger/accounts/alice", "alice-token", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"account":"alice","balance":42}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/ledger/accounts/alice", "host-token", nil)
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodGet, "/ledger/accounts/alice", "", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func TestHandleScanPassDirect(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	h := New(svc, slog.New(slog.DiscardHandler), nil, tokenTable{})

	svc.EXPECT().ScanPass(gomock.Any(), id.PassID(12)).Return(dErrors.New(dErrors.CodeUnauthorized, "only the host may scan"))

	req := httptest.NewRequest(http.MethodPost, "/passes/12/scan", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "12")
	ctx := requestcontext.WithCaller(req.Context(), "alice")
	req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.handleScanPass(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "only the host may scan", body.Description)
}
