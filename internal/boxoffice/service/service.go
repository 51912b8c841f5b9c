package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"boxoffice/internal/boxoffice/metrics"
	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/boxoffice/ports"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/audit"
	"boxoffice/pkg/platform/sentinel"
	"boxoffice/pkg/requestcontext"
)

// Config holds the deployment constants fixed at start-up.
type Config struct {
	Limits models.ShowLimits
	// ProtectionEnabled turns on refund protection and the showtime cut-off
	// for sales.
	ProtectionEnabled bool
	ProtectionRate    uint64
	VaultAccount      id.AccountID
}

func DefaultConfig() Config {
	return Config{
		Limits:            models.DefaultShowLimits(),
		ProtectionEnabled: true,
		ProtectionRate:    models.DefaultProtectionRate,
		VaultAccount:      "insurance-vault",
	}
}

func (c Config) Validate() error {
	if c.Limits.MaxCapacity == 0 || c.Limits.MaxCapacity > models.CapacityCeiling {
		return errors.New("max capacity must be between 1 and 10000")
	}
	if c.ProtectionRate > 100 {
		return errors.New("protection rate must be a percentage")
	}
	if c.ProtectionEnabled && c.VaultAccount.IsNil() {
		return errors.New("vault account is required when protection is enabled")
	}
	return nil
}

// Service runs the show and pass registries. Every mutation reads, checks and
// writes inside one StoreTx transaction together with its ledger transfers.
type Service struct {
	tx             ports.StoreTx
	cfg            Config
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	balances       ports.BalanceReader
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(tx ports.StoreTx, cfg Config, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, errors.New("store transaction is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		tx:     tx,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("boxoffice/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// instrument opens a span and returns the function that closes it, records
// the duration and counts the failure code.
func (s *Service) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "boxoffice."+op)
	return ctx, func(err error) {
		if err != nil {
			code := string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			if s.metrics != nil {
				s.metrics.IncrementFailure(op, code)
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, start)
		}
		span.End()
	}
}

func requireCaller(ctx context.Context) (id.AccountID, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required")
	}
	return caller, nil
}

// lookupError maps a store read failure to a domain error.
func lookupError(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

func storeError(err error, what string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+what)
}

// transfer moves amount through the transaction's ledger. Zero amounts are
// skipped.
func (s *Service) transfer(ctx context.Context, ledger ports.Ledger, amount id.Amount, from, to id.AccountID) error {
	if amount == 0 {
		return nil
	}
	if err := ledger.Transfer(ctx, amount, from, to); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, "value transfer failed")
	}
	return nil
}

// emitAudit publishes a committed fact. Failures are logged and never undo
// the operation.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Actor = requestcontext.Caller(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"show_id", event.ShowID,
			"pass_id", event.PassID,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
