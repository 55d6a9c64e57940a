package review

import (
	"math"
	"strings"
	"time"
)

// CreateRequest for POST /bookings/{id}/review
type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewResponse for API response
type ReviewResponse struct {
	ID          string `json:"id"`
	BookingID   string `json:"booking_id"`
	ApartmentID string `json:"apartment_id"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ToResponse converts entity to response
func (r *Review) ToResponse() *ReviewResponse {
	return &ReviewResponse{
		ID:          r.ID.String(),
		BookingID:   r.BookingID.String(),
		ApartmentID: r.ApartmentID.String(),
		AuthorID:    r.AuthorID.String(),
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// ToResponse adds the author's name.
func (l *Listed) ToResponse() *ReviewResponse {
	resp := l.Review.ToResponse()
	resp.AuthorName = strings.TrimSpace(l.AuthorFirstName + " " + l.AuthorLastName)
	return resp
}

// SummaryResponse rounds the average for display.
type SummaryResponse struct {
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Distribution  map[int]int `json:"distribution"`
}

// NewSummaryResponse converts a summary
func NewSummaryResponse(s *Summary) *SummaryResponse {
	return &SummaryResponse{
		AverageRating: math.Round(s.AverageRating*100) / 100,
		TotalReviews:  s.TotalReviews,
		Distribution:  s.Distribution,
	}
}
