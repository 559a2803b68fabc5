package story

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(ownerID string, req CreateStoryRequest) TravelStory {
	return TravelStory{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           req.Title,
		Story:           req.Story,
		VisitedLocation: req.VisitedLocation,
		ImageURL:        req.ImageURL,
		VisitedDate:     time.UnixMilli(req.VisitedDate).UTC(),
		IsFavourite:     false,
		CreatedAt:       time.Now().UTC(),
	}
}

func UpdateFromRequest(req UpdateStoryRequest, placeholderURL string) Update {
	imageURL := req.ImageURL

	if imageURL == "" {
		imageURL = placeholderURL
	}

	return Update{
		Title:           req.Title,
		Story:           req.Story,
		VisitedLocation: req.VisitedLocation,
		ImageURL:        imageURL,
		VisitedDate:     time.UnixMilli(req.VisitedDate).UTC(),
	}
}
