// Package money holds fixed-point currency amounts as integer cents.
package money

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Cents is an amount in minor units. Postgres stores it as NUMERIC(12,2).
type Cents int64

// FromUnits converts whole currency units to Cents.
func FromUnits(units int64) Cents {
	return Cents(units * 100)
}

// Parse reads a decimal string with at most two fractional digits.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		// NUMERIC(12,2) never yields more, but tolerate trailing zeros.
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("money: too many decimal places in %q", s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: %w", err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: %w", err)
	}

	c := Cents(w*100 + f)
	if neg {
		c = -c
	}
	return c, nil
}

// Mul multiplies by an integer quantity.
func (c Cents) Mul(n int64) Cents {
	return c * Cents(n)
}

// Percent returns p% of c rounded half away from zero.
func (c Cents) Percent(p int64) Cents {
	v := int64(c) * p
	if v >= 0 {
		return Cents((v + 50) / 100)
	}
	return Cents((v - 50) / 100)
}

// String formats as "1234.56".
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 is for presentation only.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// MarshalJSON encodes as a decimal string, e.g. "300.00".
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts a decimal string or a bare number.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value implements driver.Valuer.
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (c *Cents) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case []byte:
		p, err := Parse(string(v))
		if err != nil {
			return err
		}
		*c = p
		return nil
	case string:
		p, err := Parse(v)
		if err != nil {
			return err
		}
		*c = p
		return nil
	case int64:
		*c = FromUnits(v)
		return nil
	case float64:
		p, err := Parse(strconv.FormatFloat(v, 'f', 2, 64))
		if err != nil {
			return err
		}
		*c = p
		return nil
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
}
