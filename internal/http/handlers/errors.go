// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error response carries one of these codes in the
// ErrorResponse envelope:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "reminder is already paid"
//	}
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/moneywise/internal/gate"
	"github.com/tbourn/moneywise/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeAnalysisFailed = "analysis_failed"
)

var (
	notFoundErrs = []error{
		services.ErrExpenseNotFound,
		services.ErrBudgetNotFound,
		services.ErrGoalNotFound,
		services.ErrReminderNotFound,
	}
	badRequestErrs = []error{
		services.ErrInvalidAmount,
		services.ErrInvalidDate,
		services.ErrInvalidMonth,
		services.ErrInvalidRange,
		services.ErrEmptyName,
		services.ErrInvalidFrequency,
		services.ErrInvalidStatus,
		services.ErrEmptyPrompt,
		services.ErrTooLong,
	}
	conflictErrs = []error{
		services.ErrBudgetExists,
		services.ErrReminderPaid,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// serviceError translates a service or gate error into the API envelope.
// Unknown errors become 500 with a generic message; the cause is only logged.
func serviceError(c *gin.Context, err error) {
	var rle *gate.RateLimitError
	switch {
	case isAny(err, notFoundErrs):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case isAny(err, badRequestErrs):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case isAny(err, conflictErrs):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &rle):
		secs := max(int(math.Ceil(rle.RetryAfter.Seconds())), 1)
		c.Header("Retry-After", strconv.Itoa(secs))
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "analysis quota exceeded, retry later")
	case errors.Is(err, gate.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "analysis quota exceeded, retry later")
	case errors.Is(err, gate.ErrGenerationFailed):
		_ = c.Error(err)
		fail(c, http.StatusBadGateway, ErrCodeAnalysisFailed, "analysis is temporarily unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
