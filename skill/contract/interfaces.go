package contract

import (
	"context"
	"time"
)

// Showtime is one result entry from the external feed.
type Showtime struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

// ShowtimeFinder is the external lookup collaborator. Implementations must
// return a non-empty slice or an error; zero results is an error condition.
type ShowtimeFinder interface {
	Find(ctx context.Context, zipcode string, date time.Time) ([]Showtime, error)
}
