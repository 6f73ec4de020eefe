package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Redis key prefix for cached interview records
	InterviewKeyPrefix = "interview:"

	DefaultTTL = 5 * time.Minute
)

// InterviewCache is a read-through cache in front of an InterviewStore.
// Only lookups by id are cached; list queries always hit the store.
// Redis failures are logged and fall back to the store.
type InterviewCache struct {
	repositories.InterviewStore

	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewInterviewCache(store repositories.InterviewStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *InterviewCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InterviewCache{
		InterviewStore: store,
		rdb:            rdb,
		ttl:            ttl,
		logger:         logger,
	}
}

func cacheKey(id string) string {
	return InterviewKeyPrefix + id
}

func (c *InterviewCache) Get(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	if t, ok := c.lookup(ctx, id); ok {
		return t, nil
	}
	t, err := c.InterviewStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, t)
	return t, nil
}

func (c *InterviewCache) GetMany(ctx context.Context, ids []string) ([]models.InterviewTemplate, error) {
	if len(ids) == 0 {
		return []models.InterviewTemplate{}, nil
	}

	out := make([]models.InterviewTemplate, 0, len(ids))
	var missing []string

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("interview cache mget failed", zap.Error(err))
		return c.InterviewStore.GetMany(ctx, ids)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var t models.InterviewTemplate
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		out = append(out, t)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.InterviewStore.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range fetched {
		c.store(ctx, &fetched[i])
	}
	return append(out, fetched...), nil
}

func (c *InterviewCache) Update(ctx context.Context, id string, patch models.InterviewPatch) error {
	err := c.InterviewStore.Update(ctx, id, patch)
	c.invalidate(ctx, id)
	return err
}

// Ping checks the underlying store and redis.
func (c *InterviewCache) Ping(ctx context.Context) error {
	if err := c.InterviewStore.Ping(ctx); err != nil {
		return err
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *InterviewCache) lookup(ctx context.Context, id string) (*models.InterviewTemplate, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("interview cache get failed", zap.String("interviewId", id), zap.Error(err))
		}
		return nil, false
	}
	var t models.InterviewTemplate
	if err := json.Unmarshal(raw, &t); err != nil {
		c.logger.Warn("dropping corrupt interview cache entry", zap.String("interviewId", id), zap.Error(err))
		c.invalidate(ctx, id)
		return nil, false
	}
	return &t, true
}

func (c *InterviewCache) store(ctx context.Context, t *models.InterviewTemplate) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(t.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("interview cache set failed", zap.String("interviewId", t.ID), zap.Error(err))
	}
}

func (c *InterviewCache) invalidate(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("interview cache invalidate failed", zap.String("interviewId", id), zap.Error(err))
	}
}
