package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cropwatch/internal/catalog"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/httputil"
)

// Store is the read-only reference data source.
type Store interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListLocations(ctx context.Context) ([]catalog.Location, error)
}

// Handler serves the reference lookups the presentation layer needs for its
// submission and filter forms.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/products", h.HandleListProducts)
	r.Get("/locations", h.HandleListLocations)
}

type listResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list products"))
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Success: true, Data: products})
}

func (h *Handler) HandleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.ListLocations(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list locations", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list locations"))
		return
	}
	if locations == nil {
		locations = []catalog.Location{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Success: true, Data: locations})
}
