package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayouts are the raw date formats accepted by the cleaners, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"01/02/2006",
}

var errEmptyValue = errors.New("empty value")

// ParseDate parses a raw date string using DateLayouts. An explicit offset is kept,
// so the calendar day is the one written in the source.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyValue
	}
	var lastErr error
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DateOnly returns UTC midnight of t's calendar day in t's own location.
// The driver writes UTC, so DATE columns keep that day.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOnlyPtr is DateOnly for nullable columns.
func DateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOnly(*t)
	return &d
}

// FloorDays returns the whole number of days in d, rounding towards negative infinity.
func FloorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	// Remove any whitespace and check for empty strings
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errEmptyValue
	}

	// Convert string to decimal
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ParseInt64 accepts "12" as well as integral decimals such as "12.0".
func ParseInt64(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errEmptyValue
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	if !dec.Equal(dec.Truncate(0)) {
		return 0, errors.New("not an integer: " + value)
	}
	return dec.IntPart(), nil
}

// IsEmptyValue reports whether a raw cell is blank or one of the usual null markers.
func IsEmptyValue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "null", "none", "nat":
		return true
	}
	return false
}

// Round2 rounds to two decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
