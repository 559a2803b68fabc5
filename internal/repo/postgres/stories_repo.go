package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagr/travelstory/internal/domain/story"
	"github.com/voyagr/travelstory/internal/observability"
)

// Favourites first, then insertion order. The id tie-break keeps the order
// deterministic when two stories share a creation instant.
const storyOrder = ` ORDER BY is_favourite DESC, created_at ASC, id ASC`

const storyColumns = `id, owner_id, title, story, visited_location, image_url, visited_date, is_favourite, created_at`

type StoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *StoriesRepo {
	return &StoriesRepo{pool: pool, prom: prom}
}

func (r *StoriesRepo) Create(ctx context.Context, s story.TravelStory) (story.TravelStory, error) {
	err := r.prom.ObserveDB("stories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO travel_stories(`+storyColumns+`)
             VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.ID, s.OwnerID, s.Title, s.Story, s.VisitedLocation, s.ImageURL, s.VisitedDate, s.IsFavourite, s.CreatedAt)
		return err
	})

	if err != nil {
		return story.TravelStory{}, err
	}

	return s, nil
}

func (r *StoriesRepo) ListByOwner(ctx context.Context, ownerID string) ([]story.TravelStory, error) {
	return r.queryStories(ctx, "stories.list",
		`SELECT `+storyColumns+`
         FROM travel_stories
         WHERE owner_id = $1`+storyOrder,
		ownerID)
}

// Update rewrites every mutable field of an owned story. A cross-owner id is
// indistinguishable from a missing one.
func (r *StoriesRepo) Update(ctx context.Context, ownerID, id string, upd story.Update) (story.TravelStory, error) {
	var s story.TravelStory

	err := r.prom.ObserveDB("stories.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE travel_stories
             SET title = $3,
                 story = $4,
                 visited_location = $5,
                 image_url = $6,
                 visited_date = $7
             WHERE id = $1 AND owner_id = $2
             RETURNING `+storyColumns,
			id, ownerID,
			upd.Title, upd.Story, upd.VisitedLocation, upd.ImageURL, upd.VisitedDate,
		).Scan(storyFields(&s)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return story.TravelStory{}, story.ErrNotFound
		}

		return story.TravelStory{}, err
	}

	return s, nil
}

func (r *StoriesRepo) SetFavourite(ctx context.Context, ownerID, id string, isFavourite bool) (story.TravelStory, error) {
	var s story.TravelStory

	err := r.prom.ObserveDB("stories.set_favourite", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE travel_stories
             SET is_favourite = $3
             WHERE id = $1 AND owner_id = $2
             RETURNING `+storyColumns,
			id, ownerID, isFavourite,
		).Scan(storyFields(&s)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return story.TravelStory{}, story.ErrNotFound
		}

		return story.TravelStory{}, err
	}

	return s, nil
}

// Delete removes an owned story and returns the deleted record so the caller
// can clean up its image blob after the delete has committed.
func (r *StoriesRepo) Delete(ctx context.Context, ownerID, id string) (story.TravelStory, error) {
	var s story.TravelStory

	err := r.prom.ObserveDB("stories.delete", func() error {
		return r.pool.QueryRow(ctx,
			`DELETE FROM travel_stories
             WHERE id = $1 AND owner_id = $2
             RETURNING `+storyColumns,
			id, ownerID,
		).Scan(storyFields(&s)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return story.TravelStory{}, story.ErrNotFound
		}

		return story.TravelStory{}, err
	}

	return s, nil
}

func (r *StoriesRepo) Search(ctx context.Context, ownerID, query string) ([]story.TravelStory, error) {
	pattern := "%" + escapeLike(query) + "%"

	return r.queryStories(ctx, "stories.search",
		`SELECT `+storyColumns+`
         FROM travel_stories
         WHERE owner_id = $1
           AND (title ILIKE $2
                OR story ILIKE $2
                OR EXISTS (
                    SELECT 1 FROM unnest(visited_location) AS loc
                    WHERE loc ILIKE $2
                ))`+storyOrder,
		ownerID, pattern)
}

// FilterByVisitedDate is inclusive on both ends. An inverted range matches
// nothing by construction; that is not validated away.
func (r *StoriesRepo) FilterByVisitedDate(ctx context.Context, ownerID string, start, end time.Time) ([]story.TravelStory, error) {
	return r.queryStories(ctx, "stories.filter_by_date",
		`SELECT `+storyColumns+`
         FROM travel_stories
         WHERE owner_id = $1
           AND visited_date BETWEEN $2 AND $3`+storyOrder,
		ownerID, start, end)
}

func (r *StoriesRepo) queryStories(ctx context.Context, op, sql string, args ...interface{}) ([]story.TravelStory, error) {
	output := make([]story.TravelStory, 0)

	err := r.prom.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var s story.TravelStory

			if err := rows.Scan(storyFields(&s)...); err != nil {
				return err
			}

			output = append(output, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func storyFields(s *story.TravelStory) []interface{} {
	return []interface{}{
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&s.Story,
		&s.VisitedLocation,
		&s.ImageURL,
		&s.VisitedDate,
		&s.IsFavourite,
		&s.CreatedAt,
	}
}

// escapeLike neutralizes LIKE wildcards so a user query is always a literal
// substring match.
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `%`, `\%`)
	q = strings.ReplaceAll(q, `_`, `\_`)
	return q
}
