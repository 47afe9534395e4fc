//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landreg/internal/dispute/models"
	"landreg/internal/dispute/store"
	propertymodels "landreg/internal/property/models"
	propertystore "landreg/internal/property/store"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg         *containers.PostgresContainer
	store      *store.PostgresStore
	properties *propertystore.PostgresStore

	propertyID id.PropertyID
	claimantID id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
	s.properties = propertystore.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.pg.TruncateAll(ctx))

	s.claimantID = id.NewUserID()
	p, err := propertymodels.NewProperty(id.NewPropertyID(), id.NewUserID(), "AA-05-0321",
		propertymodels.TypeResidential, 160,
		propertymodels.Location{SubCity: "Lideta", Kebele: "07"},
		time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().NoError(s.properties.Create(ctx, p))
	s.propertyID = p.ID
}

func (s *PostgresStoreSuite) makeDispute(title string, at time.Time) *models.Dispute {
	d, err := models.NewDispute(id.NewDisputeID(), s.propertyID, s.claimantID,
		title, "the fence crosses my parcel", models.TypeBoundary, models.PriorityHigh, at)
	s.Require().NoError(err)
	return d
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	d := s.makeDispute("boundary overlap", time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, d))

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, got.Status)
	s.Equal(models.PriorityHigh, got.Priority)
	s.Nil(got.Resolution)
	s.Require().Len(got.Timeline, 1)
	s.Equal("submitted", got.Timeline[0].Action)
}

func (s *PostgresStoreSuite) TestExecutePersistsResolutionJSON() {
	ctx := context.Background()
	d := s.makeDispute("boundary overlap", time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, d))

	resolvedAt := time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)
	_, err := s.store.Execute(ctx, d.ID,
		func(*models.Dispute) error { return nil },
		func(cur *models.Dispute) {
			s.Require().NoError(cur.Advance(resolvedAt.Add(-time.Hour), "assigned"))
			s.Require().NoError(cur.Resolve(resolvedAt, models.StatusResolved,
				"survey confirms claimant boundary", "official map amended", "re-issue title deed"))
		})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, got.Status)
	s.Require().NotNil(got.Resolution)
	s.Equal("survey confirms claimant boundary", got.Resolution.Decision)
	s.Equal("re-issue title deed", got.Resolution.ActionRequired)
	s.True(got.Resolution.ResolvedAt.Equal(resolvedAt))
	// Timeline accumulated submit, advance, and resolve entries.
	s.GreaterOrEqual(len(got.Timeline), 3)
}

func (s *PostgresStoreSuite) TestCountActiveByProperty() {
	ctx := context.Background()
	base := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	active := s.makeDispute("first claim", base)
	withdrawn := s.makeDispute("second claim", base.Add(time.Minute))
	s.Require().NoError(s.store.Create(ctx, active))
	s.Require().NoError(s.store.Create(ctx, withdrawn))

	count, err := s.store.CountActiveByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Equal(2, count)

	_, err = s.store.Execute(ctx, withdrawn.ID,
		func(*models.Dispute) error { return nil },
		func(cur *models.Dispute) {
			s.Require().NoError(cur.Withdraw(base.Add(time.Hour), "filed twice"))
		})
	s.Require().NoError(err)

	count, err = s.store.CountActiveByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestListsAreScoped() {
	ctx := context.Background()
	d := s.makeDispute("claim", time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, d))

	byProperty, err := s.store.ListByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Len(byProperty, 1)

	byClaimant, err := s.store.ListByClaimant(ctx, s.claimantID)
	s.Require().NoError(err)
	s.Len(byClaimant, 1)

	stranger, err := s.store.ListByClaimant(ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Empty(stranger)

	_, err = s.store.FindByID(ctx, id.NewDisputeID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
