package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultCategory = "Other"
	maxCategoryLen  = 64
	maxTitleLen     = 255
	maxDescLen      = 500
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// monthRE matches YYYY-MM with a valid month number.
var monthRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var titleCaser = cases.Title(language.English)

// normalizeText trims whitespace and collapses multiple spaces to one.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizeCategory title-cases a category, falling back to "Other".
func normalizeCategory(s string) string {
	s = normalizeText(s)
	if s == "" {
		return defaultCategory
	}
	return clip(titleCaser.String(s), maxCategoryLen)
}

func clip(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// maxAmount is the first value that no longer fits decimal(12,2).
var maxAmount = decimal.New(1, 10)

// validAmount accepts positive amounts with at most two decimal places that
// fit the storage column.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2)) && d.LessThan(maxAmount)
}

// ParseDate parses "YYYY-MM-DD" or an RFC 3339 timestamp and returns the
// calendar date it names as UTC midnight. For timestamps the date is taken in
// the timestamp's own offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return dateOnly(t), nil
}

// dateOnly keeps the calendar date of t (in t's location) at UTC midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseMonth validates "YYYY-MM" and returns the half-open UTC range
// [first day, first day of next month).
func ParseMonth(s string) (from, to time.Time, err error) {
	s = strings.TrimSpace(s)
	if !monthRE.MatchString(s) {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	from, err = time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return from, from.AddDate(0, 1, 0), nil
}

// MonthOf formats t's calendar month as "YYYY-MM".
func MonthOf(t time.Time) string { return t.Format("2006-01") }
