//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "landreg/pkg/domain"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/audit/kafka"
	"landreg/pkg/testutil/containers"
)

func TestPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	brokers := containers.GetManager().GetKafka(t).Brokers
	topic := "landreg.audit.test"

	sink, err := kafka.New(ctx, brokers, topic)
	require.NoError(t, err)
	defer sink.Close()

	userID := id.NewUserID()
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UserID:    userID,
		Subject:   "property-42",
		Action:    string(audit.EventPropertyApproved),
		Reason:    "all checks passed",
		RequestID: "req-9",
		ActorID:   "officer-1",
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	require.Equal(t, "property-42", string(records[0].Key))

	var got map[string]string
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, "compliance", got["category"])
	require.Equal(t, string(audit.EventPropertyApproved), got["action"])
	require.Equal(t, "property-42", got["subject"])
	require.Equal(t, userID.String(), got["user_id"])
	require.Equal(t, "all checks passed", got["reason"])
	require.Equal(t, "req-9", got["request_id"])
	require.Equal(t, "officer-1", got["actor_id"])
	require.Equal(t, "2026-03-01T10:00:00Z", got["timestamp"])
}

func TestTopicCreationIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	brokers := containers.GetManager().GetKafka(t).Brokers

	first, err := kafka.New(ctx, brokers, "landreg.audit.idempotent")
	require.NoError(t, err)
	first.Close()

	second, err := kafka.New(ctx, brokers, "landreg.audit.idempotent")
	require.NoError(t, err)
	second.Close()
}
