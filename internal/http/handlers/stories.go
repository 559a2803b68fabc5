package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voyagr/travelstory/internal/blob"
	"github.com/voyagr/travelstory/internal/cache"
	"github.com/voyagr/travelstory/internal/domain/story"
	"github.com/voyagr/travelstory/internal/http/middlewares"
)

// StoryStore is the ownership-scoped repository contract. Every call takes
// the requester's identity explicitly; nothing is inferred from ambient
// state, so the store is testable without a simulated request.
type StoryStore interface {
	Create(ctx context.Context, s story.TravelStory) (story.TravelStory, error)
	ListByOwner(ctx context.Context, ownerID string) ([]story.TravelStory, error)
	Update(ctx context.Context, ownerID, id string, upd story.Update) (story.TravelStory, error)
	SetFavourite(ctx context.Context, ownerID, id string, isFavourite bool) (story.TravelStory, error)
	Delete(ctx context.Context, ownerID, id string) (story.TravelStory, error)
	Search(ctx context.Context, ownerID, query string) ([]story.TravelStory, error)
	FilterByVisitedDate(ctx context.Context, ownerID string, start, end time.Time) ([]story.TravelStory, error)
}

type StoriesHandler struct {
	repo           StoryStore
	blobs          blob.Store
	cache          cache.StoryListCache
	placeholderURL string
}

func NewStoriesHandler(repo StoryStore, blobs blob.Store, listCache cache.StoryListCache, placeholderURL string) *StoriesHandler {
	return &StoriesHandler{
		repo:           repo,
		blobs:          blobs,
		cache:          listCache,
		placeholderURL: placeholderURL,
	}
}

func (h *StoriesHandler) ownerID(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
	}

	return id, ok
}

// Add creates a story owned by the requester. isFavourite always starts
// false.
// POST /add-travel-story
func (h *StoriesHandler) Add(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	var req story.CreateStoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	s, err := h.repo.Create(ctx.Request.Context(), story.NewFromCreateRequest(ownerID, req))

	if err != nil {
		RespondInternal(ctx, err.Error())
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), ownerID)

	ctx.JSON(http.StatusCreated, gin.H{"story": s, "message": "Added Successfully"})
}

// GetAll lists the requester's stories, favourites first.
// GET /get-all-stories
func (h *StoriesHandler) GetAll(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	rctx := ctx.Request.Context()
	key := cache.StoriesListKey(ownerID)

	if stories, hit := h.cache.Get(rctx, key); hit {
		ctx.JSON(http.StatusOK, gin.H{"stories": stories})
		return
	}

	stories, err := h.repo.ListByOwner(rctx, ownerID)

	if err != nil {
		RespondInternal(ctx, err.Error())
		return
	}

	h.cache.Set(rctx, key, stories)

	ctx.JSON(http.StatusOK, gin.H{"stories": stories})
}

// Edit rewrites an owned story. An absent imageUrl becomes the placeholder
// reference; a story never carries an empty image.
// PUT /edit-story/:id
func (h *StoriesHandler) Edit(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	var req story.UpdateStoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	s, err := h.repo.Update(ctx.Request.Context(), ownerID, ctx.Param("id"), story.UpdateFromRequest(req, h.placeholderURL))

	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			RespondNotFound(ctx, "Travel story not found")
			return
		}

		RespondInternal(ctx, err.Error())
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), ownerID)

	ctx.JSON(http.StatusOK, gin.H{"story": s, "message": "Update Successful"})
}

// SetFavourite stores the flag the client computed; there is no server-side
// toggle.
// PUT /update-is-favourite/:id
func (h *StoriesHandler) SetFavourite(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	var req story.SetFavouriteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	s, err := h.repo.SetFavourite(ctx.Request.Context(), ownerID, ctx.Param("id"), req.IsFavourite)

	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			RespondNotFound(ctx, "Travel story not found")
			return
		}

		RespondInternal(ctx, err.Error())
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), ownerID)

	ctx.JSON(http.StatusOK, gin.H{"story": s, "message": "Update Successful"})
}

// Delete removes an owned story, then cleans up its image. The blob delete
// runs after the record delete committed and cannot fail the request.
// DELETE /delete-story/:id
func (h *StoriesHandler) Delete(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	deleted, err := h.repo.Delete(ctx.Request.Context(), ownerID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			RespondNotFound(ctx, "Travel story not found")
			return
		}

		RespondInternal(ctx, err.Error())
		return
	}

	h.blobs.Delete(ctx.Request.Context(), deleted.ImageURL)
	h.cache.Invalidate(ctx.Request.Context(), ownerID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Travel story deleted successfully"})
}

// Search matches the query as a case-insensitive substring of title, story
// text or any visited location, scoped to the requester.
// POST /search?query=
func (h *StoriesHandler) Search(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	query := ctx.Query("query")

	if query == "" {
		// the published route contract answers 404 here, not 400
		RespondNotFound(ctx, "query is required")
		return
	}

	stories, err := h.repo.Search(ctx.Request.Context(), ownerID, query)

	if err != nil {
		RespondInternal(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stories": stories})
}

// FilterByDate returns owned stories whose visitedDate falls inclusively in
// the epoch-millis range. Unparseable bounds become the zero instant, and an
// inverted range is simply empty.
// GET /travel-stories/filter?startDate=&endDate=
func (h *StoriesHandler) FilterByDate(ctx *gin.Context) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	start := epochMillisParam(ctx, "startDate")
	end := epochMillisParam(ctx, "endDate")

	stories, err := h.repo.FilterByVisitedDate(ctx.Request.Context(), ownerID, start, end)

	if err != nil {
		RespondInternal(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stories": stories})
}

func epochMillisParam(ctx *gin.Context, name string) time.Time {
	v, err := strconv.ParseInt(ctx.Query(name), 10, 64)

	if err != nil {
		v = 0
	}

	return time.UnixMilli(v).UTC()
}
