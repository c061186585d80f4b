package moderation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cropwatch/internal/canonical"
	catalogmocks "cropwatch/internal/moderation/mocks"
	"cropwatch/internal/notify"
	notifymocks "cropwatch/internal/notify/mocks"
	"cropwatch/internal/observation"
	obsstore "cropwatch/internal/observation/store"
	dErrors "cropwatch/pkg/domain-errors"
	"cropwatch/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	staging   *obsstore.MemoryStore
	canonical *canonical.MemoryStore
	notifier  *notifymocks.MockNotifier
	catalog   *catalogmocks.MockCatalogReader
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.staging = obsstore.NewMemoryStore()
	s.canonical = canonical.NewMemoryStore()
	s.notifier = notifymocks.NewMockNotifier(s.ctrl)
	s.catalog = catalogmocks.NewMockCatalogReader(s.ctrl)
	s.service = NewService(
		tx.MemoryRunner{},
		s.staging,
		s.canonical,
		s.notifier,
		s.catalog,
		slog.New(slog.DiscardHandler),
		nil,
	)
}

func (s *ServiceSuite) stage(status observation.Status) *observation.StagedObservation {
	obs := &observation.StagedObservation{
		ProductID:  1,
		LocationID: 2,
		SourceID:   3,
		Price:      decimal.NewFromInt(45000),
		Unit:       "bag (50kg)",
		Currency:   "NGN",
		ObservedAt: time.Now().Add(-time.Hour),
		Status:     status,
	}
	s.Require().NoError(s.staging.Create(context.Background(), obs))
	return obs
}

func (s *ServiceSuite) TestApprove() {
	ctx := context.Background()
	obs := s.stage(observation.StatusPending)

	s.catalog.EXPECT().ReferenceNames(gomock.Any(), int64(1), int64(2)).
		Return("Rice (Local)", "Mile 12 Market", nil)
	s.notifier.EXPECT().PublishPriceApproved(gomock.Any(), notify.PriceApprovedEvent{
		ProductID:    1,
		LocationID:   2,
		Price:        obs.Price,
		ProductName:  "Rice (Local)",
		LocationName: "Mile 12 Market",
	}).Return(nil)

	result, err := s.service.Review(ctx, ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
		Actor:  "admin@cropwatch",
	})
	s.Require().NoError(err)
	s.Equal(observation.StatusApproved, result.Status)

	s.Run("canonical record derived correctly", func() {
		records := s.canonical.All()
		s.Require().Len(records, 1)
		s.True(records[0].PricePerKg.Equal(decimal.NewFromInt(900)),
			"45000 per 50kg bag normalizes to 900/kg, got %s", records[0].PricePerKg)
		s.Equal("admin@cropwatch", records[0].ApprovedBy)
		s.Equal(obs.ObservedAt.Unix(), records[0].Time.Unix())
	})

	s.Run("staged observation is terminal", func() {
		got, err := s.staging.GetForReview(ctx, obs.ID)
		s.Require().NoError(err)
		s.Equal(observation.StatusApproved, got.Status)
		s.Require().NotNil(got.ReviewedBy)
		s.Equal("admin@cropwatch", *got.ReviewedBy)
		s.NotNil(got.ReviewedAt)
	})
}

func (s *ServiceSuite) TestApproveFlagged() {
	obs := s.stage(observation.StatusFlagged)

	s.catalog.EXPECT().ReferenceNames(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Rice (Local)", "Mile 12 Market", nil)
	s.notifier.EXPECT().PublishPriceApproved(gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
		Actor:  "admin@cropwatch",
	})
	s.Require().NoError(err)
	s.Equal(observation.StatusApproved, result.Status)
}

func (s *ServiceSuite) TestReject() {
	ctx := context.Background()
	obs := s.stage(observation.StatusFlagged)
	notes := "scraper picked up a wholesale promo"

	result, err := s.service.Review(ctx, ReviewRequest{
		ID:         obs.ID,
		Action:     ActionReject,
		Actor:      "admin@cropwatch",
		AdminNotes: &notes,
	})
	s.Require().NoError(err)
	s.Equal(observation.StatusRejected, result.Status)

	s.Empty(s.canonical.All(), "reject must not create a canonical record")

	got, err := s.staging.GetForReview(ctx, obs.ID)
	s.Require().NoError(err)
	s.Equal(observation.StatusRejected, got.Status)
	s.Require().NotNil(got.AdminNotes)
	s.Equal(notes, *got.AdminNotes)
}

func (s *ServiceSuite) TestSecondReviewConflicts() {
	ctx := context.Background()
	obs := s.stage(observation.StatusPending)

	s.catalog.EXPECT().ReferenceNames(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Rice (Local)", "Mile 12 Market", nil)
	s.notifier.EXPECT().PublishPriceApproved(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Review(ctx, ReviewRequest{ID: obs.ID, Action: ActionApprove, Actor: "first"})
	s.Require().NoError(err)

	for _, action := range []Action{ActionApprove, ActionReject} {
		_, err := s.service.Review(ctx, ReviewRequest{ID: obs.ID, Action: action, Actor: "second"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "action %s on terminal record", action)
	}

	s.Run("state unchanged by losing reviews", func() {
		got, err := s.staging.GetForReview(ctx, obs.ID)
		s.Require().NoError(err)
		s.Equal(observation.StatusApproved, got.Status)
		s.Equal("first", *got.ReviewedBy)
		s.Len(s.canonical.All(), 1)
	})
}

func (s *ServiceSuite) TestUnknownID() {
	_, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     uuid.New(),
		Action: ActionReject,
		Actor:  "admin@cropwatch",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestInvalidAction() {
	obs := s.stage(observation.StatusPending)

	_, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: Action("publish"),
		Actor:  "admin@cropwatch",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	got, err := s.staging.GetForReview(context.Background(), obs.ID)
	s.Require().NoError(err)
	s.Equal(observation.StatusPending, got.Status)
}

func (s *ServiceSuite) TestMissingActor() {
	obs := s.stage(observation.StatusPending)

	_, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestNotifyFailureDoesNotFailReview() {
	obs := s.stage(observation.StatusPending)

	s.catalog.EXPECT().ReferenceNames(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Rice (Local)", "Mile 12 Market", nil)
	s.notifier.EXPECT().PublishPriceApproved(gomock.Any(), gomock.Any()).
		Return(errors.New("broken pipe"))

	result, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
		Actor:  "admin@cropwatch",
	})
	s.Require().NoError(err, "broadcast failure is logged, never surfaced")
	s.Equal(observation.StatusApproved, result.Status)
}

func (s *ServiceSuite) TestCatalogFailureStillBroadcasts() {
	obs := s.stage(observation.StatusPending)

	s.catalog.EXPECT().ReferenceNames(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", "", errors.New("timeout"))
	s.notifier.EXPECT().PublishPriceApproved(gomock.Any(), notify.PriceApprovedEvent{
		ProductID:  1,
		LocationID: 2,
		Price:      obs.Price,
	}).Return(nil)

	_, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
		Actor:  "admin@cropwatch",
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCanonicalInsertFailureLeavesStagingUntouched() {
	obs := s.stage(observation.StatusPending)
	s.canonical.FailOn = errors.New("disk full")

	_, err := s.service.Review(context.Background(), ReviewRequest{
		ID:     obs.ID,
		Action: ActionApprove,
		Actor:  "admin@cropwatch",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	got, err := s.staging.GetForReview(context.Background(), obs.ID)
	s.Require().NoError(err)
	s.Equal(observation.StatusPending, got.Status, "failed approval must not leave partial state")
}
