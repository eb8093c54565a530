package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		err  error
	}{
		{"2026-10-15", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), nil},
		{" 2026-10-15 ", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), nil},
		{"2026-10-15T23:30:00-05:00", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), nil},
		{"", time.Time{}, ErrInvalidDate},
		{"15/10/2026", time.Time{}, ErrInvalidDate},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !errors.Is(err, tc.err) || !got.Equal(tc.want) {
			t.Fatalf("ParseDate(%q) = %v, %v; want %v, %v", tc.in, got, err, tc.want, tc.err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	from, to, err := ParseMonth("2026-12")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if !from.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range = [%v, %v)", from, to)
	}
	for _, bad := range []string{"", "2026-13", "2026-1", "26-10", "2026-10-01"} {
		if _, _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("ParseMonth(%q) err = %v; want ErrInvalidMonth", bad, err)
		}
	}
	if MonthOf(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) != "2026-03" {
		t.Fatalf("MonthOf mismatch")
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"":                "Other",
		"   ":             "Other",
		"food":            "Food",
		"  eating   out ": "Eating Out",
		"UTILITIES":       "Utilities",
	}
	for in, want := range cases {
		if got := normalizeCategory(in); got != want {
			t.Fatalf("normalizeCategory(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestValidAmount(t *testing.T) {
	ok := []string{"0.01", "1", "12.5", "9999999999.99"}
	bad := []string{"0", "-1", "0.001", "10000000000"}
	for _, s := range ok {
		if !validAmount(decimal.RequireFromString(s)) {
			t.Fatalf("validAmount(%s) = false; want true", s)
		}
	}
	for _, s := range bad {
		if validAmount(decimal.RequireFromString(s)) {
			t.Fatalf("validAmount(%s) = true; want false", s)
		}
	}
}
