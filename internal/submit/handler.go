package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cropwatch/internal/catalog"
	"cropwatch/internal/observation"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/httputil"
	"cropwatch/pkg/platform/sentinel"
	"cropwatch/pkg/requestcontext"
)

const (
	manualSourceName = "Manual Entry"
	defaultCurrency  = "NGN"
)

// Producer sends a submission into the ingest topic.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// SourceResolver looks up the source manual submissions are attributed to.
type SourceResolver interface {
	SourceByName(ctx context.Context, name string) (*catalog.Source, error)
}

// Handler accepts manual price submissions and routes them through the same
// queue the scrapers feed, so every observation passes the same validation
// and anomaly screening before staging.
type Handler struct {
	producer Producer
	sources  SourceResolver
	logger   *slog.Logger
}

func New(producer Producer, sources SourceResolver, logger *slog.Logger) *Handler {
	return &Handler{producer: producer, sources: sources, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/submit-price", h.HandleSubmit)
}

type submitRequest struct {
	ProductID  int64           `json:"product_id"`
	LocationID int64           `json:"location_id"`
	Price      decimal.Decimal `json:"price"`
	Unit       string          `json:"unit"`
	Currency   string          `json:"currency"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	data := observation.SubmissionData{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Price:      req.Price,
		Unit:       req.Unit,
		Currency:   currency,
	}
	if err := data.Validate(); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, submitResponse{Error: err.Error()})
		return
	}

	source, err := h.sources.SourceByName(ctx, manualSourceName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, submitResponse{Error: "manual entry source not configured"})
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve manual entry source", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "resolve source"))
		return
	}

	sub := observation.Submission{
		SourceID:   source.ID,
		SourceName: source.Name,
		Data:       data,
		ScrapedAt:  time.Now(),
	}
	value, err := json.Marshal(sub)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "encode submission"))
		return
	}

	key := fmt.Appendf(nil, "%d:%d", sub.Data.ProductID, sub.Data.LocationID)
	if err := h.producer.Produce(ctx, key, value); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue submission",
			"request_id", requestID,
			"product_id", sub.Data.ProductID,
			"location_id", sub.Data.LocationID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, submitResponse{Error: "submission queue unavailable"})
		return
	}

	h.logger.InfoContext(ctx, "manual submission enqueued",
		"request_id", requestID,
		"product_id", sub.Data.ProductID,
		"location_id", sub.Data.LocationID,
		"price", sub.Data.Price,
	)
	httputil.WriteJSON(w, http.StatusAccepted, submitResponse{
		Success: true,
		Message: "price submitted successfully and awaiting review",
	})
}
