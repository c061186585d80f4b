package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cropwatch/internal/moderation"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/httputil"
	"cropwatch/pkg/requestcontext"
)

const defaultQueueLimit = 100

// Service defines the moderation operations the HTTP layer needs.
type Service interface {
	Review(ctx context.Context, req moderation.ReviewRequest) (*moderation.ReviewResult, error)
}

// Queue lists staged observations awaiting review.
type Queue interface {
	ListQueue(ctx context.Context, status *observation.Status, limit int) ([]obsstore.ReviewItem, error)
}

// Handler wires moderation endpoints to the moderation service.
type Handler struct {
	service Service
	queue   Queue
	logger  *slog.Logger
}

func New(service Service, queue Queue, logger *slog.Logger) *Handler {
	return &Handler{service: service, queue: queue, logger: logger}
}

// Register mounts moderation endpoints on the router. The surrounding router
// is expected to guard these with the actor middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/review", h.HandleListQueue)
	r.Post("/admin/review", h.HandleReview)
}

type reviewRequest struct {
	ID         string  `json:"id"`
	Action     string  `json:"action"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type reviewResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleReview handles POST /admin/review requests.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		writeFailure(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeFailure(w, dErrors.New(dErrors.CodeBadRequest, "invalid observation id"))
		return
	}

	result, err := h.service.Review(ctx, moderation.ReviewRequest{
		ID:         id,
		Action:     moderation.Action(req.Action),
		Actor:      actor,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "review action failed",
			"request_id", requestID,
			"observation_id", req.ID,
			"action", req.Action,
			"actor", actor,
			"error", err,
		)
		writeFailure(w, err)
		return
	}

	h.logger.InfoContext(ctx, "review action applied",
		"request_id", requestID,
		"observation_id", req.ID,
		"status", result.Status,
		"actor", actor,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, reviewResponse{Success: true, Message: result.Message})
}

type listResponse struct {
	Success bool         `json:"success"`
	Data    []queueEntry `json:"data"`
	Count   int          `json:"count"`
	Error   string       `json:"error,omitempty"`
}

type queueEntry struct {
	ID               string  `json:"id"`
	Price            string  `json:"price"`
	Unit             string  `json:"unit"`
	Currency         string  `json:"currency"`
	ObservedAt       string  `json:"observed_at"`
	Status           string  `json:"status"`
	FlaggedReason    *string `json:"flagged_reason,omitempty"`
	AdminNotes       *string `json:"admin_notes,omitempty"`
	ProductName      string  `json:"product_name"`
	ProductCategory  string  `json:"product_category"`
	LocationName     string  `json:"location_name"`
	LocationState    string  `json:"state"`
	SourceName       string  `json:"source_name"`
	ReliabilityScore float64 `json:"reliability_score"`
}

// HandleListQueue handles GET /admin/review requests.
func (h *Handler) HandleListQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status *observation.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed := observation.Status(raw)
		switch parsed {
		case observation.StatusPending, observation.StatusFlagged,
			observation.StatusApproved, observation.StatusRejected:
			status = &parsed
		default:
			writeFailure(w, dErrors.New(dErrors.CodeBadRequest, "unknown status"))
			return
		}
	}

	limit := defaultQueueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeFailure(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}

	items, err := h.queue.ListQueue(ctx, status, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list review queue", "error", err)
		writeFailure(w, dErrors.Wrap(err, dErrors.CodeInternal, "list review queue"))
		return
	}

	entries := make([]queueEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, queueEntry{
			ID:               item.ID.String(),
			Price:            item.Price.String(),
			Unit:             item.Unit,
			Currency:         item.Currency,
			ObservedAt:       item.ObservedAt.Format(time.RFC3339),
			Status:           string(item.Status),
			FlaggedReason:    item.FlaggedReason,
			AdminNotes:       item.AdminNotes,
			ProductName:      item.ProductName,
			ProductCategory:  item.ProductCategory,
			LocationName:     item.LocationName,
			LocationState:    item.LocationState,
			SourceName:       item.SourceName,
			ReliabilityScore: item.ReliabilityScore,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Success: true, Data: entries, Count: len(entries)})
}

// writeFailure emits the review API's {success:false, error} shape with the
// status derived from the error code.
func writeFailure(w http.ResponseWriter, err error) {
	msg := dErrors.MessageOf(err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal || msg == "" {
		msg = "failed to process action"
	}
	httputil.WriteJSON(w, statusFor(err), reviewResponse{Success: false, Error: msg})
}

func statusFor(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
