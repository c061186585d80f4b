package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cropwatch/internal/canonical"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/httputil"
)

// Handler serves the published price series read path.
type Handler struct {
	store  canonical.Store
	logger *slog.Logger
}

func New(store canonical.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/prices", h.HandleListPrices)
}

type priceEntry struct {
	Time         string `json:"time"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	LocationID   int64  `json:"location_id"`
	LocationName string `json:"location_name"`
	Price        string `json:"price"`
	Unit         string `json:"unit"`
	Currency     string `json:"currency"`
	PricePerKg   string `json:"price_per_kg"`
	SourceName   string `json:"source_name"`
}

type listResponse struct {
	Success bool         `json:"success"`
	Data    []priceEntry `json:"data"`
	Count   int          `json:"count"`
}

func (h *Handler) HandleListPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var filter canonical.ListFilter
	if raw := q.Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product_id"))
			return
		}
		filter.ProductID = &id
	}
	if raw := q.Get("location_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid location_id"))
			return
		}
		filter.LocationID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		filter.Limit = limit
	}

	records, err := h.store.ListRecent(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list prices", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list prices"))
		return
	}

	entries := make([]priceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, priceEntry{
			Time:         rec.Time.Format(time.RFC3339),
			ProductID:    rec.ProductID,
			ProductName:  rec.ProductName,
			LocationID:   rec.LocationID,
			LocationName: rec.LocationName,
			Price:        rec.Price.String(),
			Unit:         rec.Unit,
			Currency:     rec.Currency,
			PricePerKg:   rec.PricePerKg.String(),
			SourceName:   rec.SourceName,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Success: true, Data: entries, Count: len(entries)})
}
