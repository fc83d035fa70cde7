package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	unreadKeyPrefix = "bookbarter:unread:"
	unreadTTL       = 30 * time.Second
	// outlives every counter key, so a reset generation never meets an old counter
	generationTTL = 24 * time.Hour
)

type Config struct {
	URL    string `yaml:"url" envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Enable bool   `yaml:"enable" envconfig:"REDIS_ENABLE"`
}

func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "redis.ParseURL")
	}
	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

// UnreadCache keeps the per-recipient unread counter the inbox badge polls for.
// Counters are stored under a per-user generation; Invalidate bumps the generation, so a count
// computed before an invalidation is written under a key nobody reads any more.
// Failures are logged and treated as misses; Postgres stays the source of truth.
type UnreadCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewUnreadCache(client *redis.Client, log *zap.Logger) *UnreadCache {
	return &UnreadCache{
		client: client,
		log:    log.Named("cache"),
	}
}

func unreadKey(userID uuid.UUID) string {
	return unreadKeyPrefix + userID.String()
}

func generationKey(userID uuid.UUID) string {
	return unreadKey(userID) + ":gen"
}

func countKey(userID uuid.UUID, gen int64) string {
	return unreadKey(userID) + ":" + strconv.FormatInt(gen, 10)
}

// UnreadCount returns the cached counter. On a miss it returns the generation the caller
// must hand back to SetUnreadCount.
func (c *UnreadCache) UnreadCount(ctx context.Context, userID uuid.UUID) (count int, gen int64, ok bool) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("get unread generation", zap.Error(err))
		return 0, -1, false
	}
	count, err = c.client.Get(ctx, countKey(userID, gen)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("get unread", zap.Error(err))
		}
		return 0, gen, false
	}
	return count, gen, true
}

func (c *UnreadCache) SetUnreadCount(ctx context.Context, userID uuid.UUID, gen int64, count int) {
	if gen < 0 {
		return
	}
	if err := c.client.Set(ctx, countKey(userID, gen), count, unreadTTL).Err(); err != nil {
		c.log.Warn("set unread", zap.Error(err))
	}
}

func (c *UnreadCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey(userID))
	pipe.Expire(ctx, generationKey(userID), generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("invalidate unread", zap.Error(err))
	}
}
