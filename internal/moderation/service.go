package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cropwatch/internal/canonical"
	"cropwatch/internal/moderation/metrics"
	"cropwatch/internal/notify"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/sentinel"
	"cropwatch/pkg/platform/tx"
)

// Action is a review decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ReviewRequest is one review action on a staged observation. Actor is the
// authenticated reviewer identifier supplied by the caller; the service never
// assumes one.
type ReviewRequest struct {
	ID         uuid.UUID
	Action     Action
	Actor      string
	AdminNotes *string
}

// ReviewResult reports the terminal status reached.
type ReviewResult struct {
	Status  observation.Status
	Message string
}

// CatalogReader resolves reference names for the notification payload.
type CatalogReader interface {
	ReferenceNames(ctx context.Context, productID, locationID int64) (product string, location string, err error)
}

// Service is the moderation engine. Each review runs as one atomic unit of
// work: the approve path writes the canonical record and the terminal status
// together, or not at all. The broadcast happens strictly after commit so it
// can never hold a lock or undo an approval.
type Service struct {
	runner    tx.Runner
	staging   obsstore.Store
	canonical canonical.Store
	notifier  notify.Notifier
	catalog   CatalogReader
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	tracer    trace.Tracer
}

func NewService(runner tx.Runner, staging obsstore.Store, canonicalStore canonical.Store, notifier notify.Notifier, catalog CatalogReader, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		runner:    runner,
		staging:   staging,
		canonical: canonicalStore,
		notifier:  notifier,
		catalog:   catalog,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		tracer:    otel.Tracer("cropwatch/moderation"),
	}
}

// Review applies an approve or reject decision to a staged observation.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if req.Action != ActionApprove && req.Action != ActionReject {
		s.metrics.IncOutcome(string(req.Action), "invalid_action")
		return nil, dErrors.New(dErrors.CodeBadRequest, "action must be approve or reject")
	}
	if req.Actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated actor required")
	}
	if req.ID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "observation id required")
	}

	ctx, span := s.tracer.Start(ctx, "moderation.review",
		trace.WithAttributes(
			attribute.String("observation.id", req.ID.String()),
			attribute.String("review.action", string(req.Action)),
		))
	defer span.End()

	start := s.now()
	var approved *canonical.PriceRecord

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		obs, err := s.staging.GetForReview(ctx, req.ID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "staged observation not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "load staged observation")
		}

		// Re-check under the row lock: the loser of a concurrent review race
		// must fail rather than silently overwrite.
		if obs.Status.IsTerminal() {
			return dErrors.New(dErrors.CodeConflict, "observation already reviewed")
		}

		reviewedAt := s.now()

		if req.Action == ActionReject {
			if err := s.applyReview(ctx, req, observation.StatusRejected, reviewedAt); err != nil {
				return err
			}
			return nil
		}

		record := &canonical.PriceRecord{
			Time:       obs.ObservedAt,
			ProductID:  obs.ProductID,
			LocationID: obs.LocationID,
			SourceID:   obs.SourceID,
			Price:      obs.Price,
			Unit:       obs.Unit,
			Currency:   obs.Currency,
			PricePerKg: Normalize(obs.Price, obs.Unit),
			ApprovedBy: req.Actor,
		}
		if err := s.canonical.Insert(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "insert canonical price")
		}
		if err := s.applyReview(ctx, req, observation.StatusApproved, reviewedAt); err != nil {
			return err
		}
		approved = record
		return nil
	})

	s.metrics.ObserveReviewLatency(s.now().Sub(start))
	if err != nil {
		s.metrics.IncOutcome(string(req.Action), outcomeOf(err))
		return nil, err
	}

	if req.Action == ActionApprove {
		s.metrics.IncOutcome(string(req.Action), "approved")
		// Strictly outside the transaction: a broadcast failure never rolls
		// back an approval.
		s.broadcast(ctx, approved)
		return &ReviewResult{Status: observation.StatusApproved, Message: "price approved and published"}, nil
	}

	s.metrics.IncOutcome(string(req.Action), "rejected")
	return &ReviewResult{Status: observation.StatusRejected, Message: "price rejected"}, nil
}

func (s *Service) applyReview(ctx context.Context, req ReviewRequest, status observation.Status, reviewedAt time.Time) error {
	err := s.staging.ApplyReview(ctx, req.ID, status, req.AdminNotes, reviewedAt, req.Actor)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "observation already reviewed")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "apply review")
	}
	return nil
}

func (s *Service) broadcast(ctx context.Context, record *canonical.PriceRecord) {
	if s.notifier == nil || record == nil {
		return
	}

	event := notify.PriceApprovedEvent{
		ProductID:  record.ProductID,
		LocationID: record.LocationID,
		Price:      record.Price,
	}
	if s.catalog != nil {
		product, location, err := s.catalog.ReferenceNames(ctx, record.ProductID, record.LocationID)
		if err != nil {
			s.logger.Warn("reference name lookup failed for broadcast",
				"product_id", record.ProductID,
				"location_id", record.LocationID,
				"error", err,
			)
		} else {
			event.ProductName = product
			event.LocationName = location
		}
	}

	if err := s.notifier.PublishPriceApproved(ctx, event); err != nil {
		s.metrics.IncNotifyFailure()
		s.logger.Error("price_approved broadcast failed",
			"product_id", record.ProductID,
			"location_id", record.LocationID,
			"error", err,
		)
	}
}

func outcomeOf(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeConflict:
		return "conflict"
	default:
		return "error"
	}
}
