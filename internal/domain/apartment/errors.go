package apartment

import "errors"

var (
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrNotApartmentOwner = errors.New("you can only manage your own apartments")
	ErrImageNotFound     = errors.New("image not found")
	ErrInvalidImage      = errors.New("image must be JPEG, PNG, GIF or WebP up to 10MB")

	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidGuestLimit   = errors.New("max_guests must be between 1 and 20")
	ErrInvalidCoordinates  = errors.New("latitude and longitude must be provided together")

	ErrDatesIncomplete   = errors.New("check_in and check_out must be provided together")
	ErrInvalidDateRange  = errors.New("check_in must be before check_out")
	ErrRadiusIncomplete  = errors.New("lat, lng and radius_km must be provided together")
	ErrInvalidPriceRange = errors.New("min_price must not exceed max_price")
)
