package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/moneywise/internal/domain"
)

// CreateSavingsGoal inserts g.
func CreateSavingsGoal(ctx context.Context, db *gorm.DB, g *domain.SavingsGoal) error {
	return db.WithContext(ctx).Create(g).Error
}

// GetSavingsGoal fetches a goal by id owned by userID.
func GetSavingsGoal(ctx context.Context, db *gorm.DB, id, userID string) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ListSavingsGoals returns the user's goals, oldest first.
func ListSavingsGoals(ctx context.Context, db *gorm.DB, userID string) ([]domain.SavingsGoal, error) {
	var out []domain.SavingsGoal
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateSavingsGoal persists name, target and deadline of g.
func UpdateSavingsGoal(ctx context.Context, db *gorm.DB, g *domain.SavingsGoal) error {
	res := db.WithContext(ctx).
		Model(&domain.SavingsGoal{}).
		Where("id = ? AND user_id = ?", g.ID, g.UserID).
		Updates(map[string]any{
			"name":          g.Name,
			"target_amount": g.TargetAmount,
			"deadline":      g.Deadline,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSavingsContribution adds amount to the goal's current amount inside a
// transaction and returns the updated goal. The row is locked where the
// dialect supports it.
func AddSavingsContribution(ctx context.Context, db *gorm.DB, id, userID string, amount decimal.Decimal) (*domain.SavingsGoal, error) {
	var out domain.SavingsGoal
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("id = ? AND user_id = ?", id, userID).First(&out).Error; err != nil {
			return err
		}
		out.CurrentAmount = out.CurrentAmount.Add(amount)
		out.UpdatedAt = time.Now().UTC()
		return tx.Model(&domain.SavingsGoal{}).
			Where("id = ?", id).
			Updates(map[string]any{"current_amount": out.CurrentAmount, "updated_at": out.UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSavingsGoal removes a goal owned by userID.
func DeleteSavingsGoal(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.SavingsGoal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
