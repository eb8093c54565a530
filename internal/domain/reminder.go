package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReminderStatus is the payment state of a reminder.
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "PENDING"
	ReminderPaid    ReminderStatus = "PAID"
)

// Valid reports whether s is a known status.
func (s ReminderStatus) Valid() bool {
	return s == ReminderPending || s == ReminderPaid
}

// Frequency is the recurrence period of a recurring reminder.
type Frequency string

const (
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Reminder is a scheduled payment the owner wants to be notified about.
//
// Lifecycle: created PENDING with LastSentAt nil; LastSentAt is stamped by the
// notifier on every successful send; PENDING -> PAID by explicit user action.
// PAID reminders are never notified. Frequency is nil unless IsRecurring.
type Reminder struct {
	ID          string          `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string          `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_reminders,priority:1"`
	Title       string          `json:"title"        gorm:"type:varchar(255);not null"`
	Amount      decimal.Decimal `json:"amount"       gorm:"type:decimal(12,2);not null"`
	DueDate     time.Time       `json:"due_date"     gorm:"not null;index"`
	Category    string          `json:"category"     gorm:"type:varchar(64);not null;default:'Other'"`
	Status      ReminderStatus  `json:"status"       gorm:"type:varchar(16);not null;default:'PENDING';index:idx_user_reminders,priority:2;check:chk_reminders_status,status IN ('PENDING','PAID')"`
	IsRecurring bool            `json:"is_recurring" gorm:"not null;default:false"`
	Frequency   *Frequency      `json:"frequency,omitempty" gorm:"type:varchar(16)"`
	LastSentAt  *time.Time      `json:"last_sent_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Reminder.
func (Reminder) TableName() string { return "reminders" }

// NextDueDate returns the due date of the following occurrence of a recurring
// reminder. ok is false for one-off reminders or an unknown frequency. Monthly
// and yearly steps clamp to the last day of the target month (Jan 31 -> Feb 28,
// Feb 29 -> Feb 28 of the next year).
func (r Reminder) NextDueDate() (next time.Time, ok bool) {
	if !r.IsRecurring || r.Frequency == nil {
		return time.Time{}, false
	}
	switch *r.Frequency {
	case FrequencyWeekly:
		return r.DueDate.AddDate(0, 0, 7), true
	case FrequencyMonthly:
		return addMonthsClamped(r.DueDate, 1), true
	case FrequencyYearly:
		return addMonthsClamped(r.DueDate, 12), true
	}
	return time.Time{}, false
}

// addMonthsClamped moves t by n months without overflowing into the month
// after the target.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return target.AddDate(0, 0, day-1)
}
