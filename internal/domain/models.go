// Package domain defines the persistence models for users, expenses, budgets,
// savings goals and payment reminders. These types are mapped with GORM and
// form the core data layer of the MoneyWise application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is the owner of every finance record. Rows are upserted from verified
// token claims; Email is the reminder notification recipient.
type User struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;default:''"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null;default:''"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Expense is a single spending record.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed together with Date for range listing.
//   - Amount: positive decimal amount.
//   - Category: title-cased category name.
//   - Date: the day the money was spent (UTC midnight).
//   - DeletedAt: soft deletion marker.
type Expense struct {
	ID          string          `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string          `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_expenses,priority:1"`
	Amount      decimal.Decimal `json:"amount"      gorm:"type:decimal(12,2);not null"`
	Category    string          `json:"category"    gorm:"type:varchar(64);not null;default:'Other'"`
	Description string          `json:"description" gorm:"type:varchar(500);not null;default:''"`
	Date        time.Time       `json:"date"        gorm:"not null;index:idx_user_expenses,priority:2"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Expense.
func (Expense) TableName() string { return "expenses" }

// Budget caps spending for one category in one calendar month ("YYYY-MM").
// A user holds at most one budget per (category, month).
type Budget struct {
	ID        string          `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string          `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_budget_user_cat_month,priority:1"`
	Category  string          `json:"category"   gorm:"type:varchar(64);not null;uniqueIndex:ux_budget_user_cat_month,priority:2"`
	Month     string          `json:"month"      gorm:"type:char(7);not null;uniqueIndex:ux_budget_user_cat_month,priority:3"`
	Limit     decimal.Decimal `json:"limit"      gorm:"column:limit_amount;type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Budget.
func (Budget) TableName() string { return "budgets" }

// SavingsGoal tracks progress towards a target amount.
type SavingsGoal struct {
	ID            string          `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string          `json:"user_id"        gorm:"type:varchar(64);not null;index"`
	Name          string          `json:"name"           gorm:"type:varchar(255);not null"`
	TargetAmount  decimal.Decimal `json:"target_amount"  gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"current_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName returns the database table name for SavingsGoal.
func (SavingsGoal) TableName() string { return "savings_goals" }

// Reached reports whether the goal's current amount meets its target.
func (g SavingsGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
