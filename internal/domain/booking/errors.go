package booking

import "fmt"

// Error kinds. Handlers branch on these with errors.Is.
var (
	ErrValidation = kindError("validation failed")
	ErrConflict   = kindError("conflict")
	ErrForbidden  = kindError("forbidden")
	ErrNotFound   = kindError("not found")
)

type kindError string

func (k kindError) Error() string { return string(k) }

// Error is a business error of one kind carrying a caller-facing message.
type Error struct {
	kind  error
	msg   string
	cause error
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind and, when present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Is matches another *Error of the same kind and message, so sentinels still
// match after withCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind && t.msg == e.msg
}

func (e *Error) withCause(cause error) *Error {
	return &Error{kind: e.kind, msg: e.msg, cause: cause}
}

var (
	ErrBookingNotFound   = newError(ErrNotFound, "booking not found")
	ErrApartmentNotFound = newError(ErrNotFound, "apartment not found")

	ErrInvalidBookingType   = newError(ErrValidation, "invalid booking type")
	ErrCheckoutNotAfter     = newError(ErrValidation, "checkout must be after checkin")
	ErrGuestCountTooLow     = newError(ErrValidation, "guest count must be at least 1")
	ErrPriceTooHigh         = newError(ErrValidation, "total price exceeds the supported maximum, book a shorter stay")
	ErrInvalidDocumentType  = newError(ErrValidation, "invalid document type")
	ErrInvalidDocumentFile  = newError(ErrValidation, "document must be a PDF, JPEG or PNG up to 15MB")
	ErrNotAcceptingBookings = newError(ErrConflict, "apartment is not accepting bookings")
	ErrUnavailable          = newError(ErrConflict, "apartment not available for selected dates")

	ErrAccessDenied = newError(ErrForbidden, "you do not have access to this booking")
)

// ErrCapacityExceeded builds the guest-limit error for an apartment.
func ErrCapacityExceeded(maxGuests int) error {
	return newError(ErrValidation, fmt.Sprintf("guest count exceeds capacity (max %d)", maxGuests))
}
