package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobMarker records that a batch job ran to completion for a given
// business date, so a retried or concurrently scheduled invocation can
// detect the earlier run and skip re-processing. The marker is only
// written after a clean run; a run with failures leaves it unset so a
// same-day retry can cover the loans that failed.
type JobMarker interface {
	// Completed reports whether the job already ran to completion for
	// the date.
	Completed(ctx context.Context, job string, date string) (bool, error)
	// MarkCompleted records a finished run for the date.
	MarkCompleted(ctx context.Context, job string, date string) error
}

// RedisJobMarker implements JobMarker with a day key shared across
// service instances. Concurrent batches racing past the Completed
// check are harmless: the per-loan compare-and-swap in the store keeps
// double-flagging out.
type RedisJobMarker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisJobMarker creates a marker with the given key prefix. The TTL
// needs to outlive the business day; 48h keeps yesterday's marker
// around through clock skew without accumulating keys forever.
func NewRedisJobMarker(client redis.UniversalClient, prefix string) *RedisJobMarker {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "coopledger:jobs"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisJobMarker{
		client: client,
		prefix: trimmedPrefix,
		ttl:    48 * time.Hour,
	}
}

func (m *RedisJobMarker) key(job string, date string) string {
	return fmt.Sprintf("%s:%s:%s", m.prefix, strings.TrimSpace(job), strings.TrimSpace(date))
}

// Completed checks the (job, date) key without touching it.
func (m *RedisJobMarker) Completed(ctx context.Context, job string, date string) (bool, error) {
	if m == nil || m.client == nil {
		return false, nil
	}
	n, err := m.client.Exists(ctx, m.key(job, date)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkCompleted records the (job, date) pair.
func (m *RedisJobMarker) MarkCompleted(ctx context.Context, job string, date string) error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.SetNX(ctx, m.key(job, date), "1", m.ttl).Err()
}
