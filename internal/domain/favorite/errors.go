package favorite

import "errors"

var (
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrFavoriteNotFound  = errors.New("apartment is not in favorites")
)
