package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	approachingKeyPrefix = "notified_"
	overdueKeyPrefix     = "overdue_"

	dayLayout = "2006-01-02"
)

// ApproachingKey is the dedupe key for an "approaching deadline" alert:
// one per task per due-date calendar day.
func ApproachingKey(taskID string, due time.Time) string {
	return fmt.Sprintf("%s%s_%s", approachingKeyPrefix, taskID, due.Format(dayLayout))
}

// OverdueKey is the dedupe key for an "overdue" alert: one per task per
// current calendar day.
func OverdueKey(taskID string, now time.Time) string {
	return fmt.Sprintf("%s%s_%s", overdueKeyPrefix, taskID, now.Format(dayLayout))
}

// DedupeStore persists alert markers in durable local storage so a task is
// alerted at most once per calendar day. Markers are never expired.
type DedupeStore struct {
	client *redis.Client
}

// NewDedupeStore creates a new dedupe store.
func NewDedupeStore(client *redis.Client) *DedupeStore {
	return &DedupeStore{client: client}
}

// Seen reports whether a marker exists for the key. Storage failures count
// as unseen: a repeated alert beats a silently dropped one.
func (s *DedupeStore) Seen(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("notify: check dedupe %s: %v", key, err)
		return false
	}
	return n > 0
}

// Mark writes a presence-only marker for the key.
func (s *DedupeStore) Mark(ctx context.Context, key string) {
	if err := s.client.Set(ctx, key, "1", 0).Err(); err != nil {
		log.Printf("notify: mark dedupe %s: %v", key, err)
	}
}
