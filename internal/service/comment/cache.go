package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/pkg/metrics"
)

const DefaultCacheTTL = 2 * time.Minute

// listCache keeps each subject's flat comment list in Redis. It holds no
// viewer specific data; like flags are always read from the store. A nil
// *listCache disables caching.
//
// Lists are keyed by a per-subject generation that every write bumps. A read
// that listed the store before a write lands can only fill the previous
// generation's key, which no later read looks at.
type listCache struct {
	client *redis.Client
	ttl    time.Duration
}

// genTTL outlives any list key, so a generation never resets while a list
// filled under it is still readable.
const genTTL = 24 * time.Hour

func newListCache(client *redis.Client, ttl time.Duration) *listCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &listCache{client: client, ttl: ttl}
}

func genKey(subjectID uuid.UUID) string {
	return fmt.Sprintf("comments:%s:gen", subjectID)
}

func listKey(subjectID uuid.UUID, gen int64) string {
	return fmt.Sprintf("comments:%s:flat:%d", subjectID, gen)
}

// generation returns the subject's current generation, or false when Redis
// cannot say.
func (c *listCache) generation(ctx context.Context, subjectID uuid.UUID) (int64, bool) {
	gen, err := c.client.Get(ctx, genKey(subjectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.WarnContext(ctx, "comment list generation read failed", "subject_id", subjectID, "error", err)
		return 0, false
	}
	return gen, true
}

// get returns the cached list and the generation it was looked up under. On a
// miss the generation is still returned so the caller can fill it with set.
func (c *listCache) get(ctx context.Context, subjectID uuid.UUID) ([]domain.Comment, int64, bool) {
	if c == nil {
		return nil, -1, false
	}

	gen, ok := c.generation(ctx, subjectID)
	if !ok {
		metrics.ListCache.WithLabelValues("miss").Inc()
		return nil, -1, false
	}

	cached, err := c.client.Get(ctx, listKey(subjectID, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "comment list cache read failed", "subject_id", subjectID, "error", err)
		}
		metrics.ListCache.WithLabelValues("miss").Inc()
		return nil, gen, false
	}

	var comments []domain.Comment
	if err := json.Unmarshal(cached, &comments); err != nil {
		metrics.ListCache.WithLabelValues("miss").Inc()
		return nil, gen, false
	}
	metrics.ListCache.WithLabelValues("hit").Inc()
	return comments, gen, true
}

// set fills the list for gen. A negative gen means the lookup failed and
// nothing is written.
func (c *listCache) set(ctx context.Context, subjectID uuid.UUID, gen int64, comments []domain.Comment) {
	if c == nil || gen < 0 {
		return
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listKey(subjectID, gen), data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "comment list cache write failed", "subject_id", subjectID, "error", err)
	}
}

// invalidate moves the subject to a new generation and drops the list cached
// under the old one.
func (c *listCache) invalidate(ctx context.Context, subjectID uuid.UUID) {
	if c == nil {
		return
	}
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, genKey(subjectID))
		pipe.Expire(ctx, genKey(subjectID), genTTL)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "comment list cache invalidation failed", "subject_id", subjectID, "error", err)
		return
	}
	if err := c.client.Del(ctx, listKey(subjectID, incr.Val()-1)).Err(); err != nil {
		slog.WarnContext(ctx, "comment list cache cleanup failed", "subject_id", subjectID, "error", err)
	}
}
