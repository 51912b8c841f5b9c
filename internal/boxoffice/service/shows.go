package service

import (
	"context"

	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/boxoffice/ports"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/audit"
	"boxoffice/pkg/requestcontext"
)

// CreateShow registers a show hosted by the caller.
func (s *Service) CreateShow(ctx context.Context, req models.CreateShowRequest) (showID id.ShowID, err error) {
	ctx, done := s.instrument(ctx, "create_show")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return 0, err
	}
	now := requestcontext.Now(ctx)
	params := req.Params()

	var created models.Show
	err = s.tx.RunInTx(ctx, func(store ports.Store, _ ports.Ledger) error {
		nextID, err := store.NextShowID(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate show id")
		}
		show, err := models.NewShow(nextID, caller, params, s.cfg.Limits, now)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeInvalidParameters, dErrors.MessageOf(err))
			}
			return err
		}
		if err := store.SaveShow(ctx, &show); err != nil {
			return storeError(err, "show")
		}
		created = show
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "show created",
		"show_id", created.ID,
		"host", created.Host,
		"max_capacity", created.MaxCapacity,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementShowsCreated()
	}
	s.emitAudit(ctx, audit.Event{
		Action: string(audit.EventShowCreated),
		ShowID: created.ID,
		Amount: created.AdmissionFee,
	})
	return created.ID, nil
}

// TerminateShow cancels a show. Only the host may terminate; terminating an
// already terminated show succeeds without change.
func (s *Service) TerminateShow(ctx context.Context, showID id.ShowID) (err error) {
	ctx, done := s.instrument(ctx, "terminate_show")
	defer func() { done(err) }()

	caller, err := requireCaller(ctx)
	if err != nil {
		return err
	}

	var changed bool
	err = s.tx.RunInTx(ctx, func(store ports.Store, _ ports.Ledger) error {
		show, err := store.FindShow(ctx, showID)
		if err != nil {
			return lookupError(err, "show")
		}
		if !show.IsHost(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the host can terminate the show")
		}
		if show.Terminated {
			return nil
		}
		terminated := show.WithTerminated()
		if err := store.SaveShow(ctx, &terminated); err != nil {
			return storeError(err, "show")
		}
		changed = true
		return nil
	})
	if err != nil || !changed {
		return err
	}

	s.logger.InfoContext(ctx, "show terminated",
		"show_id", showID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementShowsTerminated()
	}
	s.emitAudit(ctx, audit.Event{
		Action: string(audit.EventShowTerminated),
		ShowID: showID,
	})
	return nil
}

// GetShow returns a snapshot of the show.
func (s *Service) GetShow(ctx context.Context, showID id.ShowID) (models.Show, error) {
	var show models.Show
	err := s.tx.View(ctx, func(store ports.Reader) error {
		found, err := store.FindShow(ctx, showID)
		if err != nil {
			return lookupError(err, "show")
		}
		show = *found
		return nil
	})
	return show, err
}
