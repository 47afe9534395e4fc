//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landreg/internal/notification/models"
	"landreg/internal/notification/store"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) makeNotification(userID id.UserID, title string, at time.Time) *models.Notification {
	n, err := models.NewNotification(id.NewNotificationID(), userID,
		"property", title, "message body", "/properties", at)
	s.Require().NoError(err)
	return n
}

func (s *RedisStoreSuite) TestCreateAndListNewestFirst() {
	ctx := context.Background()
	userID := id.NewUserID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		n := s.makeNotification(userID, title, base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(ctx, n))
	}

	notifications, err := s.store.ListByUser(ctx, userID, false)
	s.Require().NoError(err)
	s.Require().Len(notifications, 3)
	s.Equal("third", notifications[0].Title)
	s.Equal("first", notifications[2].Title)
}

func (s *RedisStoreSuite) TestListScopedToUser() {
	ctx := context.Background()
	alice := id.NewUserID()
	bob := id.NewUserID()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Create(ctx, s.makeNotification(alice, "for alice", now)))
	s.Require().NoError(s.store.Create(ctx, s.makeNotification(bob, "for bob", now)))

	notifications, err := s.store.ListByUser(ctx, alice, false)
	s.Require().NoError(err)
	s.Require().Len(notifications, 1)
	s.Equal("for alice", notifications[0].Title)
}

func (s *RedisStoreSuite) TestMarkReadAndUnreadFilter() {
	ctx := context.Background()
	userID := id.NewUserID()
	now := time.Now().UTC()

	n := s.makeNotification(userID, "verify documents", now)
	s.Require().NoError(s.store.Create(ctx, n))

	// Another user's mark is a not-found, not a cross-user write.
	err := s.store.MarkRead(ctx, id.NewUserID(), n.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.MarkRead(ctx, userID, n.ID))

	unread, err := s.store.ListByUser(ctx, userID, true)
	s.Require().NoError(err)
	s.Empty(unread)

	count, err := s.store.CountUnread(ctx, userID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RedisStoreSuite) TestMarkAllRead() {
	ctx := context.Background()
	userID := id.NewUserID()
	now := time.Now().UTC()

	for i := range 5 {
		s.Require().NoError(s.store.Create(ctx,
			s.makeNotification(userID, "update", now.Add(time.Duration(i)*time.Second))))
	}

	marked, err := s.store.MarkAllRead(ctx, userID)
	s.Require().NoError(err)
	s.Equal(5, marked)

	marked, err = s.store.MarkAllRead(ctx, userID)
	s.Require().NoError(err)
	s.Zero(marked)
}
