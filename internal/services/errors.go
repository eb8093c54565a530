// Package services defines the business logic for expenses, budgets, savings
// goals, payment reminders and AI analysis. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Not-found errors. Records owned by another user are reported as missing.
var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrBudgetNotFound   = errors.New("budget not found")
	ErrGoalNotFound     = errors.New("savings goal not found")
	ErrReminderNotFound = errors.New("reminder not found")
)

// Validation errors.
var (
	// ErrInvalidAmount is returned for zero, negative or over-precise amounts.
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")

	// ErrInvalidDate is returned when a date is missing or unparsable.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD or RFC 3339")

	// ErrInvalidMonth is returned when a month is not in YYYY-MM form.
	ErrInvalidMonth = errors.New("month must be YYYY-MM")

	// ErrInvalidRange is returned when a listing range ends before it starts.
	ErrInvalidRange = errors.New("from must not be after to")

	// ErrEmptyName is returned when a required title or name is blank.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrInvalidFrequency is returned when a recurring reminder lacks a known
	// frequency, or a one-off reminder carries one.
	ErrInvalidFrequency = errors.New("frequency must be WEEKLY, MONTHLY or YEARLY for recurring reminders only")

	// ErrInvalidStatus is returned for an unknown reminder status filter.
	ErrInvalidStatus = errors.New("status must be PENDING or PAID")

	// ErrEmptyPrompt is returned when an analysis request has no prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a prompt or text field exceeds its limit.
	ErrTooLong = errors.New("text too long")
)

// State errors.
var (
	// ErrBudgetExists is returned when a budget for the same category and
	// month already exists.
	ErrBudgetExists = errors.New("budget already exists for this category and month")

	// ErrReminderPaid is returned when an operation requires a PENDING
	// reminder.
	ErrReminderPaid = errors.New("reminder is already paid")
)
