package services

import (
	"time"

	"github.com/tbourn/moneywise/internal/domain"
)

// notifyDays are the exact day counts before the due date on which a
// notification fires. Reminders 2, 4, 5 or 6 days out are not notified.
var notifyDays = map[int]struct{}{0: {}, 1: {}, 3: {}, 7: {}}

// maxNotifyDays is the largest entry of notifyDays.
const maxNotifyDays = 7

// civil returns the calendar date of t in loc as UTC midnight.
func civil(t time.Time, loc *time.Location) time.Time {
	return dateOnly(t.In(loc))
}

// DaysUntilDue returns the whole calendar days from today (in loc) to the
// reminder's due date. Due dates are stored as calendar dates at UTC
// midnight, so only today is converted. Negative means overdue.
func DaysUntilDue(due, today time.Time, loc *time.Location) int {
	d := dateOnly(due.UTC())
	t := civil(today, loc)
	return int(d.Sub(t).Hours() / 24)
}

// SentOnDay reports whether lastSentAt falls on today's calendar date in loc.
func SentOnDay(lastSentAt *time.Time, today time.Time, loc *time.Location) bool {
	if lastSentAt == nil {
		return false
	}
	return civil(*lastSentAt, loc).Equal(civil(today, loc))
}

// IsNotificationDue reports whether r should be notified today: it must be
// PENDING, due in exactly 0, 1, 3 or 7 days, and not already notified on
// today's date.
func IsNotificationDue(r domain.Reminder, today time.Time, loc *time.Location) bool {
	if r.Status != domain.ReminderPending {
		return false
	}
	days := DaysUntilDue(r.DueDate, today, loc)
	if days < 0 {
		return false
	}
	if _, ok := notifyDays[days]; !ok {
		return false
	}
	return !SentOnDay(r.LastSentAt, today, loc)
}
