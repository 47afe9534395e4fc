//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landreg/internal/property/models"
	"landreg/internal/property/store"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
	"landreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
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
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) makeProperty(plot string) *models.Property {
	p, err := models.NewProperty(id.NewPropertyID(), id.NewUserID(), plot,
		models.TypeResidential, 250,
		models.Location{SubCity: "Bole", Kebele: "03", Street: "Main"},
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	p := s.makeProperty("AA-01-0042")
	s.Require().NoError(s.store.Create(ctx, p))

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.PlotNumber, got.PlotNumber)
	s.Equal(p.OwnerID, got.OwnerID)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(p.Location, got.Location)
	s.Len(got.Timeline, len(p.Timeline))
}

func (s *PostgresStoreSuite) TestPlotNumberIsUnique() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.makeProperty("AA-01-0042")))

	err := s.store.Create(ctx, s.makeProperty("AA-01-0042"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewPropertyID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteBumpsVersionAndAppendsTimeline() {
	ctx := requestcontext.WithTime(context.Background(),
		time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	p := s.makeProperty("AA-01-0042")
	s.Require().NoError(s.store.Create(ctx, p))

	updated, err := s.store.Execute(ctx, p.ID,
		func(*models.Property) error { return nil },
		func(cur *models.Property) {
			cur.Status = models.StatusDocumentsPending
			cur.AppendTimeline(requestcontext.Now(ctx), "documents_requested", "awaiting uploads")
		})
	s.Require().NoError(err)
	s.Equal(p.Version+1, updated.Version)
	s.Equal(models.StatusDocumentsPending, updated.Status)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDocumentsPending, got.Status)
	s.Require().NotEmpty(got.Timeline)
	s.Equal("documents_requested", got.Timeline[len(got.Timeline)-1].Action)
}

func (s *PostgresStoreSuite) TestExecuteValidateFailureLeavesRowUntouched() {
	ctx := context.Background()
	p := s.makeProperty("AA-01-0042")
	s.Require().NoError(s.store.Create(ctx, p))

	_, err := s.store.Execute(ctx, p.ID,
		func(*models.Property) error { return sentinel.ErrInvalidState },
		func(cur *models.Property) { cur.Status = models.StatusApproved })
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(p.Version, got.Version)
}

func (s *PostgresStoreSuite) TestListByOwner() {
	ctx := context.Background()
	mine := s.makeProperty("AA-01-0001")
	other := s.makeProperty("AA-01-0002")
	s.Require().NoError(s.store.Create(ctx, mine))
	s.Require().NoError(s.store.Create(ctx, other))

	listed, err := s.store.ListByOwner(ctx, mine.OwnerID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(mine.ID, listed[0].ID)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresStoreSuite) TestDeleteCascadesTimeline() {
	ctx := context.Background()
	p := s.makeProperty("AA-01-0042")
	s.Require().NoError(s.store.Create(ctx, p))

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	_, err := s.store.FindByID(ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM property_timeline`).Scan(&count))
	s.Zero(count)

	s.Require().ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)
}
