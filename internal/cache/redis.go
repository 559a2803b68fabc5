package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyagr/travelstory/internal/domain/story"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis caches story listings as JSON blobs. Backend failures degrade to
// cache misses; they are logged at debug level and never surfaced.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedis(cfg RedisConfig, log *slog.Logger) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) Get(ctx context.Context, key string) ([]story.TravelStory, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()

	if err != nil {
		if err != redis.Nil {
			c.log.DebugContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}

	var stories []story.TravelStory

	if err := json.Unmarshal(raw, &stories); err != nil {
		c.log.DebugContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return nil, false
	}

	return stories, true
}

func (c *Redis) Set(ctx context.Context, key string, stories []story.TravelStory) {
	raw, err := json.Marshal(stories)

	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.DebugContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c *Redis) Invalidate(ctx context.Context, ownerID string) {
	key := StoriesListKey(ownerID)

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.DebugContext(ctx, "cache invalidate failed", "key", key, "err", err)
	}
}
