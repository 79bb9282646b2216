package adjustcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "smartlead:llm-adjustment:"
	scanBatch        = 200
)

// Redis shares adjustments between API and worker processes. Redis failures
// are logged and treated as cache misses.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedis creates a Redis-backed cache. ttl <= 0 keeps entries until they
// are invalidated.
func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.Discard()
	}
	return &Redis{client: client, prefix: defaultKeyPrefix, ttl: ttl, log: log}
}

func (r *Redis) key(leadID uuid.UUID) string {
	return r.prefix + leadID.String()
}

func (r *Redis) Get(ctx context.Context, leadID uuid.UUID) (int, bool) {
	raw, err := r.client.Get(ctx, r.key(leadID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		r.log.Warn("adjustment cache read failed", "leadId", leadID, "error", err)
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		r.log.Warn("adjustment cache holds non-integer value", "leadId", leadID, "value", raw)
		return 0, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, leadID uuid.UUID, adjustment int) {
	if err := r.client.Set(ctx, r.key(leadID), adjustment, r.ttl).Err(); err != nil {
		r.log.Warn("adjustment cache write failed", "leadId", leadID, "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, leadID uuid.UUID) {
	if err := r.client.Del(ctx, r.key(leadID)).Err(); err != nil {
		r.log.Warn("adjustment cache invalidate failed", "leadId", leadID, "error", err)
	}
}

// Clear removes every adjustment under the cache prefix.
func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			r.del(ctx, keys)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("adjustment cache scan failed", "error", err)
	}
	if len(keys) > 0 {
		r.del(ctx, keys)
	}
}

func (r *Redis) del(ctx context.Context, keys []string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn("adjustment cache clear failed", "keys", len(keys), "error", err)
	}
}
