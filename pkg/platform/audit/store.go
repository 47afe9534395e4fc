package audit

import (
	"context"
	"time"

	id "landreg/pkg/domain"
)

// Store persists audit events. Implementations: in-memory (tests, dev) and
// PostgreSQL. The Kafka sink is a Sink, not a Store - it cannot be queried.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// Sink receives a copy of every appended event for fan-out (Kafka).
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Filter narrows /logs queries. Zero values mean "no constraint".
type Filter struct {
	Category EventCategory
	Action   string
	Subject  string
	Since    time.Time
	Until    time.Time
	Limit    int
}
