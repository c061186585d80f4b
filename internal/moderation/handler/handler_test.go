package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/internal/moderation"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/requestcontext"
)

type stubService struct {
	gotReq moderation.ReviewRequest
	result *moderation.ReviewResult
	err    error
}

func (s *stubService) Review(_ context.Context, req moderation.ReviewRequest) (*moderation.ReviewResult, error) {
	s.gotReq = req
	return s.result, s.err
}

func setup(service Service) (*chi.Mux, *obsstore.MemoryStore) {
	staging := obsstore.NewMemoryStore()
	h := New(service, staging, slog.New(slog.DiscardHandler))
	router := chi.NewRouter()
	h.Register(router)
	return router, staging
}

func doReview(t *testing.T, router http.Handler, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/review", strings.NewReader(body))
	if actor != "" {
		req = req.WithContext(requestcontext.WithActor(req.Context(), actor))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleReview(t *testing.T) {
	id := uuid.New()

	t.Run("approve passes actor and notes through", func(t *testing.T) {
		service := &stubService{result: &moderation.ReviewResult{
			Status:  observation.StatusApproved,
			Message: "price approved and published",
		}}
		router, _ := setup(service)

		w := doReview(t, router, "admin@cropwatch",
			`{"id":"`+id.String()+`","action":"approve","admin_notes":"checks out"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "price approved and published", resp["message"])

		assert.Equal(t, id, service.gotReq.ID)
		assert.Equal(t, moderation.ActionApprove, service.gotReq.Action)
		assert.Equal(t, "admin@cropwatch", service.gotReq.Actor)
		require.NotNil(t, service.gotReq.AdminNotes)
		assert.Equal(t, "checks out", *service.gotReq.AdminNotes)
	})

	t.Run("missing actor unauthorized", func(t *testing.T) {
		router, _ := setup(&stubService{})
		w := doReview(t, router, "", `{"id":"`+id.String()+`","action":"approve"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := setup(&stubService{})
		w := doReview(t, router, "admin@cropwatch", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		router, _ := setup(&stubService{})
		w := doReview(t, router, "admin@cropwatch", `{"id":"42","action":"approve"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict surfaces as 409", func(t *testing.T) {
		service := &stubService{err: dErrors.New(dErrors.CodeConflict, "observation already reviewed")}
		router, _ := setup(service)

		w := doReview(t, router, "admin@cropwatch", `{"id":"`+id.String()+`","action":"reject"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, "observation already reviewed", resp["error"])
	})

	t.Run("not found surfaces as 404", func(t *testing.T) {
		service := &stubService{err: dErrors.New(dErrors.CodeNotFound, "staged observation not found")}
		router, _ := setup(service)
		w := doReview(t, router, "admin@cropwatch", `{"id":"`+id.String()+`","action":"reject"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleListQueue(t *testing.T) {
	router, staging := setup(&stubService{})

	reason := "price deviates 50.0% from the recent average of 40000.00"
	flagged := &observation.StagedObservation{
		ProductID:     1,
		LocationID:    2,
		SourceID:      3,
		Price:         decimal.NewFromInt(60000),
		Unit:          "bag (50kg)",
		Currency:      "NGN",
		ObservedAt:    time.Now(),
		Status:        observation.StatusFlagged,
		FlaggedReason: &reason,
		DedupKey:      "k1",
	}
	pending := &observation.StagedObservation{
		ProductID:  1,
		LocationID: 2,
		SourceID:   3,
		Price:      decimal.NewFromInt(42000),
		Unit:       "bag (50kg)",
		Currency:   "NGN",
		ObservedAt: time.Now().Add(-time.Minute),
		Status:     observation.StatusPending,
		DedupKey:   "k2",
	}
	require.NoError(t, staging.Create(context.Background(), flagged))
	require.NoError(t, staging.Create(context.Background(), pending))

	t.Run("flagged first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/review", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Count   int  `json:"count"`
			Data    []struct {
				ID            string  `json:"id"`
				Status        string  `json:"status"`
				FlaggedReason *string `json:"flagged_reason"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, flagged.ID.String(), resp.Data[0].ID)
		assert.Equal(t, "flagged", resp.Data[0].Status)
		require.NotNil(t, resp.Data[0].FlaggedReason)
		assert.Contains(t, *resp.Data[0].FlaggedReason, "50.0%")
	})

	t.Run("status filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/review?status=pending", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/review?status=published", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad limit rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/review?limit=nope", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
