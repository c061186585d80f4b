//go:build integration

package canonical_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"cropwatch/internal/canonical"
	"cropwatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *canonical.PostgresStore
	productID  int64
	locationID int64
	sourceID   int64
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = canonical.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "staged_observations", "prices", "products", "locations", "sources")
	s.Require().NoError(err)
	s.productID, s.locationID, s.sourceID = s.postgres.SeedReference(ctx, s.T())
}

func (s *PostgresStoreSuite) insertPrice(price int64, at time.Time) *canonical.PriceRecord {
	record := &canonical.PriceRecord{
		ID:         uuid.New(),
		Time:       at,
		ProductID:  s.productID,
		LocationID: s.locationID,
		SourceID:   s.sourceID,
		Price:      decimal.NewFromInt(price),
		Unit:       "bag (50kg)",
		Currency:   "NGN",
		PricePerKg: decimal.NewFromInt(price).Div(decimal.NewFromInt(50)),
		ApprovedBy: "admin@cropwatch.ng",
	}
	s.Require().NoError(s.store.Insert(context.Background(), record))
	return record
}

func (s *PostgresStoreSuite) TestRecentApprovedWindow() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.insertPrice(30000, now.Add(-time.Hour))
	s.insertPrice(31000, now.Add(-48*time.Hour))
	s.insertPrice(99000, now.Add(-240*time.Hour)) // outside a 7 day window

	since := now.Add(-7 * 24 * time.Hour)
	prices, err := s.store.RecentApproved(ctx, s.productID, s.locationID, since, 10)
	s.Require().NoError(err)
	s.Require().Len(prices, 2)

	// Newest first.
	s.True(prices[0].Equal(decimal.NewFromInt(30000)), "got %s", prices[0])
	s.True(prices[1].Equal(decimal.NewFromInt(31000)), "got %s", prices[1])
}

func (s *PostgresStoreSuite) TestRecentApprovedLimit() {
	ctx := context.Background()
	now := time.Now().UTC()
	for i := range 15 {
		s.insertPrice(30000+int64(i), now.Add(-time.Duration(i)*time.Minute))
	}

	prices, err := s.store.RecentApproved(ctx, s.productID, s.locationID, now.Add(-24*time.Hour), 10)
	s.Require().NoError(err)
	s.Len(prices, 10)
}

func (s *PostgresStoreSuite) TestRecentApprovedScopedToSeries() {
	ctx := context.Background()
	s.insertPrice(30000, time.Now().UTC())

	prices, err := s.store.RecentApproved(ctx, s.productID+1000, s.locationID, time.Time{}, 10)
	s.Require().NoError(err)
	s.Empty(prices)
}

func (s *PostgresStoreSuite) TestListRecentJoinsReferenceNames() {
	ctx := context.Background()
	record := s.insertPrice(45000, time.Now().UTC())

	records, err := s.store.ListRecent(ctx, canonical.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(records, 1)

	got := records[0]
	s.Equal(record.ID, got.ID)
	s.True(got.PricePerKg.Equal(decimal.NewFromInt(900)), "got %s", got.PricePerKg)
	s.Equal("admin@cropwatch.ng", got.ApprovedBy)
	s.NotEmpty(got.ProductName)
	s.NotEmpty(got.LocationName)
	s.NotEmpty(got.SourceName)
}

func (s *PostgresStoreSuite) TestListRecentFilters() {
	ctx := context.Background()
	s.insertPrice(30000, time.Now().UTC())

	other := s.productID + 1000
	records, err := s.store.ListRecent(ctx, canonical.ListFilter{ProductID: &other})
	s.Require().NoError(err)
	s.Empty(records)

	records, err = s.store.ListRecent(ctx, canonical.ListFilter{ProductID: &s.productID, LocationID: &s.locationID})
	s.Require().NoError(err)
	s.Len(records, 1)
}
