package servicepack

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned by ParseDate for strings no known layout accepts
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts lists the calendar formats seen in the portal and in
// configuration files. Single-digit layout elements also accept two digits.
var dateLayouts = []string{
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
}

// ParseDate parses a calendar date as displayed by the portal.
// Dates without a zone are taken as UTC so comparisons are independent of the
// host's local time zone.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and
// static tables.
func MustParseDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}
