package story

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("travel story not found")

type TravelStory struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"userId"`
	Title           string    `json:"title"`
	Story           string    `json:"story"`
	VisitedLocation []string  `json:"visitedLocation"`
	ImageURL        string    `json:"imageUrl"`
	VisitedDate     time.Time `json:"visitedDate"`
	IsFavourite     bool      `json:"isFavourite"`
	CreatedAt       time.Time `json:"createdAt"`
}

// VisitedDate arrives as epoch milliseconds from the client; no range
// validation is applied on purpose (past and future dates are fine).
type CreateStoryRequest struct {
	Title           string   `json:"title" binding:"required"`
	Story           string   `json:"story" binding:"required"`
	VisitedLocation []string `json:"visitedLocation" binding:"required,min=1,dive,required"`
	ImageURL        string   `json:"imageUrl" binding:"required"`
	VisitedDate     int64    `json:"visitedDate" binding:"required"`
}

// Same required fields as create except imageUrl: an empty one falls back to
// the placeholder asset, so a story never ends up with a blank reference.
type UpdateStoryRequest struct {
	Title           string   `json:"title" binding:"required"`
	Story           string   `json:"story" binding:"required"`
	VisitedLocation []string `json:"visitedLocation" binding:"required,min=1,dive,required"`
	ImageURL        string   `json:"imageUrl"`
	VisitedDate     int64    `json:"visitedDate" binding:"required"`
}

type SetFavouriteRequest struct {
	// client computes the new value; false is a valid setting, so no
	// "required" tag here
	IsFavourite bool `json:"isFavourite"`
}

// Update is the resolved mutation applied to an owned story. ImageURL is
// always concrete by the time it reaches a repository.
type Update struct {
	Title           string
	Story           string
	VisitedLocation []string
	ImageURL        string
	VisitedDate     time.Time
}
