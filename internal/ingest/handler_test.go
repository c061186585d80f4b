package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/internal/canonical"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	"cropwatch/internal/platform/kafka/consumer"
)

type fixture struct {
	handler   *Handler
	staging   *obsstore.MemoryStore
	canonical *canonical.MemoryStore
}

func newFixture() *fixture {
	logger := slog.New(slog.DiscardHandler)
	staging := obsstore.NewMemoryStore()
	canonicalStore := canonical.NewMemoryStore()
	detector := observation.NewDetector(canonicalStore, logger)
	return &fixture{
		handler:   NewHandler(staging, detector, logger, nil),
		staging:   staging,
		canonical: canonicalStore,
	}
}

func submission(price int64) observation.Submission {
	return observation.Submission{
		SourceID:   3,
		SourceName: "Jiji Scraper",
		Data: observation.SubmissionData{
			ProductID:    1,
			ProductName:  "Rice (Local)",
			LocationID:   2,
			LocationName: "Mile 12 Market",
			Price:        decimal.NewFromInt(price),
			Unit:         "bag (50kg)",
			Currency:     "NGN",
		},
		ScrapedAt: time.Now(),
	}
}

func message(t *testing.T, sub observation.Submission) *consumer.Message {
	t.Helper()
	value, err := json.Marshal(sub)
	require.NoError(t, err)
	return &consumer.Message{Topic: "scraped_prices", Value: value}
}

func queueLen(t *testing.T, s *obsstore.MemoryStore) int {
	t.Helper()
	items, err := s.ListQueue(context.Background(), nil, 100)
	require.NoError(t, err)
	return len(items)
}

func TestHandleMalformedMessageRequeues(t *testing.T) {
	f := newFixture()
	err := f.handler.Handle(context.Background(), &consumer.Message{Value: []byte("{not json")})
	assert.Error(t, err)
	assert.Zero(t, queueLen(t, f.staging))
}

func TestHandleInvalidObservationDropped(t *testing.T) {
	f := newFixture()
	sub := submission(45000)
	sub.Data.Unit = ""

	err := f.handler.Handle(context.Background(), message(t, sub))
	assert.NoError(t, err, "invalid observations are acknowledged, not retried")
	assert.Zero(t, queueLen(t, f.staging))
}

func TestHandleStagesPendingWithoutHistory(t *testing.T) {
	f := newFixture()

	err := f.handler.Handle(context.Background(), message(t, submission(45000)))
	require.NoError(t, err)

	items, err := f.staging.ListQueue(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, observation.StatusPending, items[0].Status)
	assert.Nil(t, items[0].FlaggedReason)
}

func TestHandleFlagsAnomalousObservation(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.canonical.Insert(context.Background(), &canonical.PriceRecord{
			Time:       time.Now().Add(-time.Hour),
			ProductID:  1,
			LocationID: 2,
			Price:      decimal.NewFromInt(40000),
		}))
	}

	err := f.handler.Handle(context.Background(), message(t, submission(60000)))
	require.NoError(t, err)

	items, err := f.staging.ListQueue(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, observation.StatusFlagged, items[0].Status)
	require.NotNil(t, items[0].FlaggedReason)
	assert.Contains(t, *items[0].FlaggedReason, "50.0%")
	assert.Contains(t, *items[0].FlaggedReason, "40000.00")
}

func TestHandleStagingFailureRequeues(t *testing.T) {
	f := newFixture()
	f.staging.FailOn = errors.New("connection reset")

	err := f.handler.Handle(context.Background(), message(t, submission(45000)))
	assert.Error(t, err)
}

func TestHandleRedeliveredMessageAcknowledged(t *testing.T) {
	f := newFixture()
	sub := submission(45000)

	require.NoError(t, f.handler.Handle(context.Background(), message(t, sub)))
	require.NoError(t, f.handler.Handle(context.Background(), message(t, sub)),
		"redelivery of an already-staged observation must be acknowledged")

	assert.Equal(t, 1, queueLen(t, f.staging))
}
