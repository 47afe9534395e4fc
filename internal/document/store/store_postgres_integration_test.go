//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landreg/internal/document/models"
	"landreg/internal/document/store"
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
	ownerID    id.UserID
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

	s.ownerID = id.NewUserID()
	p, err := propertymodels.NewProperty(id.NewPropertyID(), s.ownerID, "AA-07-0099",
		propertymodels.TypeResidential, 180,
		propertymodels.Location{SubCity: "Yeka", Kebele: "11"},
		time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().NoError(s.properties.Create(ctx, p))
	s.propertyID = p.ID
}

func (s *PostgresStoreSuite) makeDocument(docType models.Type, at time.Time) *models.Document {
	d, err := models.NewDocument(id.NewDocumentID(), s.propertyID, s.ownerID,
		docType, "deed.pdf", "application/pdf", 2048, at)
	s.Require().NoError(err)
	return d
}

func (s *PostgresStoreSuite) TestUpsertAndFindRoundTrip() {
	ctx := context.Background()
	d := s.makeDocument(models.TypeTitleDeed, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	replaced, err := s.store.Upsert(ctx, d)
	s.Require().NoError(err)
	s.Nil(replaced)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(d.StorageKey, got.StorageKey)
	s.Equal(d.SizeBytes, got.SizeBytes)
}

func (s *PostgresStoreSuite) TestUpsertReplacesSlot() {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	first := s.makeDocument(models.TypeTitleDeed, base)
	_, err := s.store.Upsert(ctx, first)
	s.Require().NoError(err)

	second := s.makeDocument(models.TypeTitleDeed, base.Add(time.Hour))
	replaced, err := s.store.Upsert(ctx, second)
	s.Require().NoError(err)
	s.Require().NotNil(replaced)
	s.Equal(first.ID, replaced.ID)

	// Only the new upload occupies the slot.
	_, err = s.store.FindByID(ctx, first.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	listed, err := s.store.ListByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(second.ID, listed[0].ID)
}

func (s *PostgresStoreSuite) TestExecutePersistsReview() {
	ctx := context.Background()
	d := s.makeDocument(models.TypeTaxClearance, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	_, err := s.store.Upsert(ctx, d)
	s.Require().NoError(err)

	reviewedAt := time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC)
	updated, err := s.store.Execute(ctx, d.ID,
		func(*models.Document) error { return nil },
		func(cur *models.Document) {
			s.Require().NoError(cur.Verify("stamp checks out", reviewedAt))
		})
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, updated.Status)

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, got.Status)
	s.Equal("stamp checks out", got.Notes)
	s.Require().NotNil(got.ReviewedAt)
	s.True(got.ReviewedAt.Equal(reviewedAt))
}

func (s *PostgresStoreSuite) TestDeleteByPropertyReturnsRemoved() {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err := s.store.Upsert(ctx, s.makeDocument(models.TypeTitleDeed, base))
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, s.makeDocument(models.TypeIDCopy, base.Add(time.Minute)))
	s.Require().NoError(err)

	removed, err := s.store.DeleteByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Len(removed, 2)

	listed, err := s.store.ListByProperty(ctx, s.propertyID)
	s.Require().NoError(err)
	s.Empty(listed)
}
