package review

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds enforced by reviews_rating_check.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a tenant's rating of a stay. One per booking.
type Review struct {
	ID          uuid.UUID `db:"id"`
	BookingID   uuid.UUID `db:"booking_id"`
	ApartmentID uuid.UUID `db:"apartment_id"`
	AuthorID    uuid.UUID `db:"author_id"`
	Rating      int       `db:"rating"`
	Comment     string    `db:"comment"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Listed is a review joined with its author's display name.
type Listed struct {
	Review
	AuthorFirstName string `db:"author_first_name"`
	AuthorLastName  string `db:"author_last_name"`
}

// Summary aggregates an apartment's ratings.
type Summary struct {
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Distribution  map[int]int `json:"distribution"`
}

// NewSummary builds a summary from per-rating counts. Every rating from 1 to
// 5 is present in the distribution.
func NewSummary(counts map[int]int) *Summary {
	s := &Summary{Distribution: make(map[int]int, MaxRating)}
	sum := 0
	for r := MinRating; r <= MaxRating; r++ {
		n := counts[r]
		s.Distribution[r] = n
		s.TotalReviews += n
		sum += r * n
	}
	if s.TotalReviews > 0 {
		s.AverageRating = float64(sum) / float64(s.TotalReviews)
	}
	return s
}
