// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
)

// ExpensesStats returns aggregate metadata for a user's expenses matching f:
// the total number of rows and the maximum UpdatedAt among those rows.
//
// When nothing matches, the returned count is 0 and maxUpdatedAt is nil.
func ExpensesStats(ctx context.Context, db *gorm.DB, userID string, f ExpenseFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Expense{}, userID, f.apply)
}

// RemindersStats returns the reminder count and latest UpdatedAt for userID.
func RemindersStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Reminder{}, userID, nil)
}

func tableStats(ctx context.Context, db *gorm.DB, model any, userID string, scope func(*gorm.DB) *gorm.DB) (int64, *time.Time, error) {
	base := func() *gorm.DB {
		q := db.WithContext(ctx).Model(model).Where("user_id = ?", userID)
		if scope != nil {
			q = scope(q)
		}
		return q
	}

	var count int64
	if err := base().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := base().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
