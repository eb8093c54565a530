package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/repo"
)

// BudgetStatus reports spending against one budget.
type BudgetStatus struct {
	Budget     domain.Budget   `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	OverBudget bool            `json:"over_budget"`
}

// BudgetService manages monthly category budgets.
type BudgetService struct {
	DB *gorm.DB
}

// NewBudgetService constructs a BudgetService.
func NewBudgetService(db *gorm.DB) *BudgetService {
	return &BudgetService{DB: db}
}

// Create adds a budget for category in month ("YYYY-MM").
func (s *BudgetService) Create(ctx context.Context, userID, category, month string, limit decimal.Decimal) (*domain.Budget, error) {
	if !validAmount(limit) {
		return nil, ErrInvalidAmount
	}
	if _, _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b := &domain.Budget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Category:  normalizeCategory(category),
		Month:     month,
		Limit:     limit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateBudget(ctx, s.DB, b); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrBudgetExists
		}
		return nil, err
	}
	return b, nil
}

// List returns the user's budgets, optionally for a single month.
func (s *BudgetService) List(ctx context.Context, userID, month string) ([]domain.Budget, error) {
	if month != "" {
		if _, _, err := ParseMonth(month); err != nil {
			return nil, err
		}
	}
	return repo.ListBudgets(ctx, s.DB, userID, month)
}

// UpdateLimit changes a budget's limit.
func (s *BudgetService) UpdateLimit(ctx context.Context, userID, id string, limit decimal.Decimal) (*domain.Budget, error) {
	if !validAmount(limit) {
		return nil, ErrInvalidAmount
	}
	if err := repo.UpdateBudgetLimit(ctx, s.DB, id, userID, limit); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}
	b, err := repo.GetBudget(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBudgetNotFound
	}
	return b, err
}

// Delete removes a budget owned by userID.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteBudget(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrBudgetNotFound
	}
	return err
}

// Status computes spent, remaining and percentage used for every budget of
// month from that month's expenses in the budget's category.
func (s *BudgetService) Status(ctx context.Context, userID, month string) ([]BudgetStatus, error) {
	ctx, span := otel.Tracer("services/BudgetService").Start(ctx, "Status",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("month", month)))
	defer span.End()

	from, to, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	budgets, err := repo.ListBudgets(ctx, s.DB, userID, month)
	if err != nil {
		return nil, err
	}
	expenses, err := repo.ListExpenses(ctx, s.DB, userID, repo.ExpenseFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	spent := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		spent[e.Category] = spent[e.Category].Add(e.Amount)
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		sp := spent[b.Category]
		st := BudgetStatus{
			Budget:     b,
			Spent:      sp,
			Remaining:  b.Limit.Sub(sp),
			OverBudget: sp.GreaterThan(b.Limit),
		}
		if b.Limit.IsPositive() {
			st.Percentage = sp.Div(b.Limit).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		out = append(out, st)
	}
	return out, nil
}
