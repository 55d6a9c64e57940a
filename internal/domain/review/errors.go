package review

import "errors"

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrApartmentNotFound   = errors.New("apartment not found")
	ErrNotBookingTenant    = errors.New("only the tenant of this booking can review it")
	ErrBookingNotCompleted = errors.New("only completed stays can be reviewed")
	ErrAlreadyReviewed     = errors.New("booking already reviewed")
)
