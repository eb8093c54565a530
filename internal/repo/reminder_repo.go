package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
)

// ReminderFilter narrows reminder listings. Zero values disable a criterion.
type ReminderFilter struct {
	Status domain.ReminderStatus
	// DueBefore excludes reminders due on or after this instant.
	DueBefore time.Time
}

// CreateReminder inserts r.
func CreateReminder(ctx context.Context, db *gorm.DB, r *domain.Reminder) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetReminder fetches a reminder by id owned by userID.
func GetReminder(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Reminder, error) {
	var r domain.Reminder
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReminders returns reminders ordered by due date. An empty userID lists
// reminders of every user, which is what the scheduled job uses.
func ListReminders(ctx context.Context, db *gorm.DB, userID string, f ReminderFilter) ([]domain.Reminder, error) {
	var out []domain.Reminder
	q := db.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.DueBefore.IsZero() {
		q = q.Where("due_date < ?", f.DueBefore)
	}
	err := q.Order("due_date asc, created_at asc").Find(&out).Error
	return out, err
}

// UpdateReminder persists the user-editable fields of r.
func UpdateReminder(ctx context.Context, db *gorm.DB, r *domain.Reminder) error {
	res := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("id = ? AND user_id = ?", r.ID, r.UserID).
		Updates(map[string]any{
			"title":        r.Title,
			"amount":       r.Amount,
			"due_date":     r.DueDate,
			"category":     r.Category,
			"is_recurring": r.IsRecurring,
			"frequency":    r.Frequency,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReminderSent records a successful notification at the given instant.
func MarkReminderSent(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_sent_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReminderPaid transitions a PENDING reminder to PAID. It returns
// ErrNotFound when the reminder is missing, foreign or already paid.
func MarkReminderPaid(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.ReminderPending).
		Updates(map[string]any{"status": domain.ReminderPaid, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReminder removes a reminder owned by userID.
func DeleteReminder(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Reminder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
