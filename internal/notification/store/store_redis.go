package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"landreg/internal/notification/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

const (
	itemKeyPrefix = "notif:item:"
	userKeyPrefix = "notif:user:"

	// retention bounds how long undelivered notifications linger.
	retention = 30 * 24 * time.Hour
)

// RedisStore keeps notifications in Redis: one JSON value per notification
// and a per-user sorted set scored by creation time for recency ordering.
// Shared across instances, unlike the in-memory store.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func itemKey(notificationID id.NotificationID) string {
	return itemKeyPrefix + notificationID.String()
}

func userKey(userID id.UserID) string {
	return userKeyPrefix + userID.String()
}

func (s *RedisStore) Create(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, itemKey(n.ID), payload, retention)
	pipe.ZAdd(ctx, userKey(n.UserID), redis.Z{
		Score:  float64(n.CreatedAt.UnixMilli()),
		Member: n.ID.String(),
	})
	pipe.Expire(ctx, userKey(n.UserID), retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID, unreadOnly bool) ([]*models.Notification, error) {
	members, err := s.client.ZRevRange(ctx, userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = itemKeyPrefix + member
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	var out []*models.Notification
	var expired []any
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Item expired out from under its index entry.
			expired = append(expired, members[i])
			continue
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, &n)
	}
	if len(expired) > 0 {
		_ = s.client.ZRem(ctx, userKey(userID), expired...).Err()
	}
	return out, nil
}

func (s *RedisStore) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	notifications, err := s.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	return len(notifications), nil
}

func (s *RedisStore) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	n, err := s.load(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return sentinel.ErrNotFound
	}
	if n.Read {
		return nil
	}
	n.Read = true
	return s.save(ctx, n)
}

func (s *RedisStore) MarkAllRead(ctx context.Context, userID id.UserID) (int, error) {
	notifications, err := s.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	for _, n := range notifications {
		n.Read = true
		if err := s.save(ctx, n); err != nil {
			return 0, err
		}
	}
	return len(notifications), nil
}

func (s *RedisStore) load(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	raw, err := s.client.Get(ctx, itemKey(notificationID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}
	var n models.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

func (s *RedisStore) save(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.client.Set(ctx, itemKey(n.ID), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}
