package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
)

// CreateBudget inserts b, returning ErrDuplicate when the user already has a
// budget for the same category and month.
func CreateBudget(ctx context.Context, db *gorm.DB, b *domain.Budget) error {
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetBudget fetches a budget by id owned by userID.
func GetBudget(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Budget, error) {
	var b domain.Budget
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBudgets returns the user's budgets ordered by month then category.
// An empty month lists all months.
func ListBudgets(ctx context.Context, db *gorm.DB, userID, month string) ([]domain.Budget, error) {
	var out []domain.Budget
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if month != "" {
		q = q.Where("month = ?", month)
	}
	err := q.Order("month desc, category asc").Find(&out).Error
	return out, err
}

// UpdateBudgetLimit changes the limit of a budget owned by userID.
func UpdateBudgetLimit(ctx context.Context, db *gorm.DB, id, userID string, limit decimal.Decimal) error {
	res := db.WithContext(ctx).
		Model(&domain.Budget{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"limit_amount": limit, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBudget removes a budget owned by userID.
func DeleteBudget(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Budget{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
