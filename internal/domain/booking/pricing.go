package booking

import (
	"time"

	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/money"
)

// DaysPerMonth is the month length used by monthly pricing.
const DaysPerMonth = 30

// MaxTotalPrice is the largest total bookings.total_price (NUMERIC(12,2))
// can hold.
const MaxTotalPrice = money.Cents(999_999_999_999)

// Rates are the apartment prices a quote is computed from.
type Rates struct {
	PerNight money.Cents
	PerMonth money.Cents
}

// Quote computes the total price of a stay.
//
// Nightly stays cost nights * PerNight. Monthly stays cost
// max(1, nights / 30) * PerMonth with integer division, so 45 nights bill one
// month and 65 nights bill two. Totals above MaxTotalPrice are refused.
func Quote(bookingType BookingType, start, end time.Time, rates Rates) (money.Cents, error) {
	nights := int64(daterange.Nights(start, end))

	switch bookingType {
	case TypeNight:
		return capped(rates.PerNight, nights)
	case TypeMonth:
		months := nights / DaysPerMonth
		if months < 1 {
			months = 1
		}
		return capped(rates.PerMonth, months)
	}
	return 0, ErrInvalidBookingType
}

func capped(rate money.Cents, units int64) (money.Cents, error) {
	if units > 0 && rate > MaxTotalPrice/money.Cents(units) {
		return 0, ErrPriceTooHigh
	}
	return rate.Mul(units), nil
}
