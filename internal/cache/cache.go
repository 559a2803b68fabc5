package cache

import (
	"context"
	"sync"
	"time"

	"github.com/voyagr/travelstory/internal/domain/story"
)

// StoryListCache holds per-owner story listings. Implementations are
// advisory: a miss or a failed backend just means the repository is asked
// again.
type StoryListCache interface {
	Get(ctx context.Context, key string) ([]story.TravelStory, bool)
	Set(ctx context.Context, key string, stories []story.TravelStory)
	// Invalidate drops every cached listing for one owner. Called on any
	// write so readers never see a stale favourites order.
	Invalidate(ctx context.Context, ownerID string)
}

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
}

type entry struct {
	val []story.TravelStory
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func (c *Memory) Get(ctx context.Context, key string) ([]story.TravelStory, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Memory) Set(ctx context.Context, key string, stories []story.TravelStory) {
	c.mu.Lock()
	c.m[key] = entry{val: stories, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Memory) Invalidate(ctx context.Context, ownerID string) {
	key := StoriesListKey(ownerID)

	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
