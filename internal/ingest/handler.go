package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cropwatch/internal/ingest/metrics"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	"cropwatch/internal/platform/kafka/consumer"
	"cropwatch/pkg/platform/sentinel"
)

// Handler processes one queue message: deserialize, validate, screen for
// anomalies, stage. Returning nil acknowledges the message; returning an
// error leaves it for redelivery.
type Handler struct {
	staging  obsstore.Store
	detector *observation.Detector
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(staging obsstore.Store, detector *observation.Detector, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		staging:  staging,
		detector: detector,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	start := time.Now()
	h.metrics.IncConsumed()
	defer func() { h.metrics.ObserveProcessDuration(time.Since(start)) }()

	var sub observation.Submission
	if err := json.Unmarshal(msg.Value, &sub); err != nil {
		h.metrics.IncRequeued()
		return fmt.Errorf("decode submission: %w", err)
	}

	// Structural invalidity will not resolve itself on redelivery: drop.
	if err := sub.Data.Validate(); err != nil {
		h.logger.Warn("dropping invalid observation",
			"source", sub.SourceName,
			"product_id", sub.Data.ProductID,
			"location_id", sub.Data.LocationID,
			"error", err,
		)
		h.metrics.IncDropped("invalid")
		return nil
	}

	result := h.detector.Detect(ctx, sub.Data.ProductID, sub.Data.LocationID, sub.Data.Price)

	status := observation.StatusPending
	var flaggedReason *string
	if result.IsAnomaly {
		status = observation.StatusFlagged
		flaggedReason = &result.Reason
	}

	obs := &observation.StagedObservation{
		ProductID:     sub.Data.ProductID,
		LocationID:    sub.Data.LocationID,
		SourceID:      sub.SourceID,
		Price:         sub.Data.Price,
		Unit:          sub.Data.Unit,
		Currency:      sub.Data.Currency,
		ObservedAt:    sub.ScrapedAt,
		Status:        status,
		FlaggedReason: flaggedReason,
		DedupKey:      sub.DedupKey(),
	}

	if err := h.staging.Create(ctx, obs); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// A redelivered message already staged this observation.
			h.logger.Info("skipping duplicate observation",
				"dedup_key", obs.DedupKey,
				"product_id", obs.ProductID,
				"location_id", obs.LocationID,
			)
			h.metrics.IncDropped("duplicate")
			return nil
		}
		h.metrics.IncRequeued()
		return fmt.Errorf("stage observation: %w", err)
	}

	h.metrics.IncStaged(string(status))
	h.logger.Info("staged observation",
		"id", obs.ID,
		"product", sub.Data.ProductName,
		"location", sub.Data.LocationName,
		"price", obs.Price,
		"status", status,
	)
	if flaggedReason != nil {
		h.logger.Info("observation flagged for review",
			"id", obs.ID,
			"reason", *flaggedReason,
		)
	}
	return nil
}
