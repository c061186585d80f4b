package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/internal/catalog"
	"cropwatch/internal/observation"
	"cropwatch/pkg/platform/sentinel"
)

type capturingProducer struct {
	key   []byte
	value []byte
	err   error
	calls int
}

func (p *capturingProducer) Produce(_ context.Context, key, value []byte) error {
	p.calls++
	p.key = key
	p.value = value
	return p.err
}

type stubResolver struct {
	source *catalog.Source
	err    error
}

func (s *stubResolver) SourceByName(_ context.Context, _ string) (*catalog.Source, error) {
	return s.source, s.err
}

func setup(producer Producer, resolver SourceResolver) *chi.Mux {
	h := New(producer, resolver, slog.New(slog.DiscardHandler))
	router := chi.NewRouter()
	h.Register(router)
	return router
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit-price", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSubmit(t *testing.T) {
	manual := &catalog.Source{ID: 3, Name: "Manual Entry", ReliabilityScore: 0.5}

	t.Run("valid submission goes through the queue", func(t *testing.T) {
		producer := &capturingProducer{}
		router := setup(producer, &stubResolver{source: manual})

		w := post(router, `{"product_id":1,"location_id":2,"price":45000,"unit":"bag (50kg)"}`)
		require.Equal(t, http.StatusAccepted, w.Code)
		require.Equal(t, 1, producer.calls)

		assert.Equal(t, "1:2", string(producer.key))

		var sub observation.Submission
		require.NoError(t, json.Unmarshal(producer.value, &sub))
		assert.Equal(t, int64(3), sub.SourceID)
		assert.Equal(t, "Manual Entry", sub.SourceName)
		assert.Equal(t, int64(1), sub.Data.ProductID)
		assert.Equal(t, "NGN", sub.Data.Currency, "currency defaults when omitted")
		assert.False(t, sub.ScrapedAt.IsZero())
		assert.NoError(t, sub.Data.Validate(), "enqueued submissions are structurally valid")
	})

	t.Run("structural validation happens before enqueue", func(t *testing.T) {
		producer := &capturingProducer{}
		router := setup(producer, &stubResolver{source: manual})

		w := post(router, `{"product_id":1,"location_id":2,"price":-5,"unit":"kg"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, producer.calls)
	})

	t.Run("missing manual source", func(t *testing.T) {
		router := setup(&capturingProducer{}, &stubResolver{err: sentinel.ErrNotFound})
		w := post(router, `{"product_id":1,"location_id":2,"price":45000,"unit":"kg"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("queue unavailable", func(t *testing.T) {
		producer := &capturingProducer{err: errors.New("no brokers")}
		router := setup(producer, &stubResolver{source: manual})
		w := post(router, `{"product_id":1,"location_id":2,"price":45000,"unit":"kg"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
