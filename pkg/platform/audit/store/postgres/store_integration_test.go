//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "landreg/pkg/domain"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/audit/store/postgres"
	"landreg/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
}

func (s *AuditStoreSuite) appendEvent(userID id.UserID, action string, category audit.EventCategory, at time.Time) {
	s.Require().NoError(s.store.Append(context.Background(), audit.Event{
		Category:  category,
		Timestamp: at,
		UserID:    userID,
		Subject:   "property-1",
		Action:    action,
		RequestID: "req-1",
	}))
}

func (s *AuditStoreSuite) TestAppendAndListByUser() {
	ctx := context.Background()
	userID := id.NewUserID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.appendEvent(userID, string(audit.EventPropertyRegistered), audit.CategoryCompliance, base)
	s.appendEvent(userID, string(audit.EventPropertyApproved), audit.CategoryCompliance, base.Add(time.Hour))
	s.appendEvent(id.NewUserID(), string(audit.EventLoginFailed), audit.CategorySecurity, base)

	events, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventPropertyRegistered), events[0].Action)
	s.Equal(string(audit.EventPropertyApproved), events[1].Action)
	s.Equal(userID, events[0].UserID)
	s.Equal("req-1", events[0].RequestID)
}

func (s *AuditStoreSuite) TestListFilters() {
	ctx := context.Background()
	userID := id.NewUserID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.appendEvent(userID, string(audit.EventPropertyRegistered), audit.CategoryCompliance, base)
	s.appendEvent(userID, string(audit.EventLoginFailed), audit.CategorySecurity, base.Add(time.Hour))
	s.appendEvent(userID, string(audit.EventPaymentCompleted), audit.CategoryCompliance, base.Add(2*time.Hour))

	byCategory, err := s.store.List(ctx, audit.Filter{Category: audit.CategorySecurity})
	s.Require().NoError(err)
	s.Require().Len(byCategory, 1)
	s.Equal(string(audit.EventLoginFailed), byCategory[0].Action)

	byAction, err := s.store.List(ctx, audit.Filter{Action: string(audit.EventPaymentCompleted)})
	s.Require().NoError(err)
	s.Len(byAction, 1)

	since, err := s.store.List(ctx, audit.Filter{Since: base.Add(30 * time.Minute)})
	s.Require().NoError(err)
	s.Len(since, 2)

	limited, err := s.store.List(ctx, audit.Filter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(string(audit.EventPropertyRegistered), limited[0].Action)
}

func (s *AuditStoreSuite) TestNilUserIsPreserved() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Subject:   "unknown@example.com",
		Action:    string(audit.EventLoginFailed),
	}))

	events, err := s.store.List(ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.True(events[0].UserID.IsNil())
}
