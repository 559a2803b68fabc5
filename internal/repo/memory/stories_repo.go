package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voyagr/travelstory/internal/domain/story"
)

// StoriesRepo keeps stories in a map, guarded by a mutex. It mirrors the
// Postgres repo's semantics (ownership scoping, favourites-first ordering)
// and backs tests that should not need a database.
type StoriesRepo struct {
	mu      sync.RWMutex
	stories map[string]story.TravelStory
}

func NewStoriesRepo() *StoriesRepo {
	return &StoriesRepo{
		stories: make(map[string]story.TravelStory),
	}
}

func (r *StoriesRepo) Create(ctx context.Context, s story.TravelStory) (story.TravelStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stories[s.ID] = s
	return s, nil
}

func (r *StoriesRepo) ListByOwner(ctx context.Context, ownerID string) ([]story.TravelStory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(s story.TravelStory) bool {
		return s.OwnerID == ownerID
	}), nil
}

func (r *StoriesRepo) Update(ctx context.Context, ownerID, id string, upd story.Update) (story.TravelStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stories[id]
	if !ok || s.OwnerID != ownerID {
		return story.TravelStory{}, story.ErrNotFound
	}

	s.Title = upd.Title
	s.Story = upd.Story
	s.VisitedLocation = upd.VisitedLocation
	s.ImageURL = upd.ImageURL
	s.VisitedDate = upd.VisitedDate

	r.stories[id] = s
	return s, nil
}

func (r *StoriesRepo) SetFavourite(ctx context.Context, ownerID, id string, isFavourite bool) (story.TravelStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stories[id]
	if !ok || s.OwnerID != ownerID {
		return story.TravelStory{}, story.ErrNotFound
	}

	s.IsFavourite = isFavourite
	r.stories[id] = s
	return s, nil
}

func (r *StoriesRepo) Delete(ctx context.Context, ownerID, id string) (story.TravelStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stories[id]
	if !ok || s.OwnerID != ownerID {
		return story.TravelStory{}, story.ErrNotFound
	}

	delete(r.stories, id)
	return s, nil
}

func (r *StoriesRepo) Search(ctx context.Context, ownerID, query string) ([]story.TravelStory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)

	return r.collect(func(s story.TravelStory) bool {
		if s.OwnerID != ownerID {
			return false
		}

		if strings.Contains(strings.ToLower(s.Title), needle) ||
			strings.Contains(strings.ToLower(s.Story), needle) {
			return true
		}

		for _, loc := range s.VisitedLocation {
			if strings.Contains(strings.ToLower(loc), needle) {
				return true
			}
		}

		return false
	}), nil
}

func (r *StoriesRepo) FilterByVisitedDate(ctx context.Context, ownerID string, start, end time.Time) ([]story.TravelStory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(s story.TravelStory) bool {
		if s.OwnerID != ownerID {
			return false
		}
		// inclusive on both ends
		return !s.VisitedDate.Before(start) && !s.VisitedDate.After(end)
	}), nil
}

// collect gathers matching stories favourites-first with the created_at/id
// tie-break, same as the SQL ORDER BY. Caller must hold the lock.
func (r *StoriesRepo) collect(match func(story.TravelStory) bool) []story.TravelStory {
	out := make([]story.TravelStory, 0)

	for _, s := range r.stories {
		if match(s) {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsFavourite != out[j].IsFavourite {
			return out[i].IsFavourite
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
