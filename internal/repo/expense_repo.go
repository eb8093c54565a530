// Package repo implements the data persistence layer for domain entities,
// backed by GORM.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Every query is scoped by user_id so one
// user can never read or mutate another user's rows.
//
// Error semantics:
//   - When a row is not found (or belongs to another user), functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - Unique index violations are mapped to ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ExpenseFilter narrows expense listings. Zero values disable a criterion.
// From is inclusive, To is exclusive.
type ExpenseFilter struct {
	From     time.Time
	To       time.Time
	Category string
}

func (f ExpenseFilter) apply(q *gorm.DB) *gorm.DB {
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

// CreateExpense inserts e. The caller assigns the ID.
func CreateExpense(ctx context.Context, db *gorm.DB, e *domain.Expense) error {
	return db.WithContext(ctx).Create(e).Error
}

// GetExpense fetches a single expense by id owned by userID.
func GetExpense(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Expense, error) {
	var e domain.Expense
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CountExpenses returns the number of expenses matching f for userID.
func CountExpenses(ctx context.Context, db *gorm.DB, userID string, f ExpenseFilter) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Expense{}).Where("user_id = ?", userID)
	err := f.apply(q).Count(&total).Error
	return total, err
}

// ListExpensesPage returns a page of expenses matching f, newest first.
// The caller computes offset and limit.
func ListExpensesPage(ctx context.Context, db *gorm.DB, userID string, f ExpenseFilter, offset, limit int) ([]domain.Expense, error) {
	var out []domain.Expense
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).
		Order("date desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListExpenses returns every expense matching f, newest first.
func ListExpenses(ctx context.Context, db *gorm.DB, userID string, f ExpenseFilter) ([]domain.Expense, error) {
	var out []domain.Expense
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).Order("date desc, created_at desc").Find(&out).Error
	return out, err
}

// UpdateExpense persists the mutable fields of e, enforcing ownership.
// Returns ErrNotFound when no row matched.
func UpdateExpense(ctx context.Context, db *gorm.DB, e *domain.Expense) error {
	res := db.WithContext(ctx).
		Model(&domain.Expense{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Updates(map[string]any{
			"amount":      e.Amount,
			"category":    e.Category,
			"description": e.Description,
			"date":        e.Date,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense soft-deletes an expense owned by userID.
func DeleteExpense(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
