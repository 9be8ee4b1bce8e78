// Package normalizer converts raw cell values into canonical transaction
// fields: calendar dates, decimal amounts, cleaned descriptions.
package normalizer

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
)

// Date layouts tried in priority order. ISO forms win over US forms so an
// unambiguous export is never misread as month/day.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"01/02/2006",
	"01/02/06",
}

// ParseDate parses a calendar date, truncated to a UTC day. Time-of-day in
// the source is discarded.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseAmount parses a money cell into a decimal, stripping currency
// symbols and thousands separators ("$1,234.56" -> 1234.56). The sign is
// kept as written; batch-level sign normalization happens later.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(raw, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return amount, nil
}

var spacePattern = regexp.MustCompile(`\s+`)

// CleanDescription trims and collapses whitespace in a description cell.
func CleanDescription(raw string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}
