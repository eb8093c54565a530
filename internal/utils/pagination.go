// Package utils holds small helpers shared by the HTTP handlers.
package utils

import "strconv"

// Pagination defaults and bounds for list endpoints.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage parses raw page and page_size values and bounds them to
// [1, ∞) and [1, MaxPageSize].
func ClampPage(rawPage, rawSize string) (page, pageSize int) {
	page = max(AtoiDefault(rawPage, DefaultPage), 1)
	pageSize = min(max(AtoiDefault(rawSize, DefaultPageSize), 1), MaxPageSize)
	return page, pageSize
}

// TotalPages is the number of pages of size pageSize needed for total items.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
