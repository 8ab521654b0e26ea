package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price precision: decimal(5,2).
const (
	PriceDigits   = 5
	PriceDecimals = 2
	MaxPrice      = Price(99999)
)

// Price errors. Their text is safe to show to clients.
//
//nolint:staticcheck // client-facing sentences
var (
	ErrPriceInvalid  = errors.New("A valid number is required.")
	ErrPriceNegative = errors.New("Ensure this value is greater than or equal to 0.")
	ErrPriceDecimals = fmt.Errorf("Ensure that there are no more than %d decimal places.", PriceDecimals)
	ErrPriceTooLarge = fmt.Errorf("Ensure that there are no more than %d digits before the decimal point.", PriceDigits-PriceDecimals)
)

// Price is a non-negative amount in hundredths.
type Price int64

// ParsePrice parses a plain decimal such as "20", "5.1", or "999.99".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return 0, ErrPriceInvalid
		}
		return 0, ErrPriceNegative
	}

	whole, frac, _ := strings.Cut(s, ".")
	if (whole == "" && frac == "") || !allDigits(whole) || !allDigits(frac) {
		return 0, ErrPriceInvalid
	}
	if len(frac) > PriceDecimals {
		return 0, ErrPriceDecimals
	}

	whole = strings.TrimLeft(whole, "0")
	if len(whole) > PriceDigits-PriceDecimals {
		return 0, ErrPriceTooLarge
	}

	var cents int64
	for _, c := range whole {
		cents = cents*10 + int64(c-'0')
	}
	frac += strings.Repeat("0", PriceDecimals-len(frac))
	for _, c := range frac {
		cents = cents*10 + int64(c-'0')
	}
	return Price(cents), nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String formats p with exactly two decimals.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// Value implements driver.Valuer.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner. NUMERIC columns arrive as text from PostgreSQL
// and as integers or floats from SQLite.
func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*p = Price(v * 100)
	case float64:
		*p = Price(math.Round(v * 100))
	case []byte:
		return p.Scan(string(v))
	case string:
		parsed, err := ParsePrice(v)
		if err != nil {
			return fmt.Errorf("scan price %q: %w", v, err)
		}
		*p = parsed
	default:
		return fmt.Errorf("scan price: unsupported type %T", src)
	}
	return nil
}
