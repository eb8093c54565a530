// Package services – ExpenseService
//
// This file implements ExpenseService, which validates and normalizes expense
// input, enforces ownership and coordinates repository operations for
// creating, listing (with filters and pagination), updating and deleting
// expenses.
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

// ExpenseInput carries user-supplied expense fields.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// ExpenseService provides expense CRUD scoped to the owning user.
type ExpenseService struct {
	DB *gorm.DB
}

// NewExpenseService constructs an ExpenseService.
func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{DB: db}
}

func (s *ExpenseService) validate(in ExpenseInput) (ExpenseInput, error) {
	if !validAmount(in.Amount) {
		return in, ErrInvalidAmount
	}
	if in.Date.IsZero() {
		return in, ErrInvalidDate
	}
	in.Category = normalizeCategory(in.Category)
	in.Description = normalizeText(in.Description)
	if len([]rune(in.Description)) > maxDescLen {
		return in, ErrTooLong
	}
	in.Date = dateOnly(in.Date)
	return in, nil
}

// Create inserts a new expense owned by userID.
func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (*domain.Expense, error) {
	ctx, span := otel.Tracer("services/ExpenseService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	e := &domain.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateExpense(ctx, s.DB, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns one expense owned by userID.
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*domain.Expense, error) {
	e, err := repo.GetExpense(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	return e, err
}

// ListPage returns a page of expenses matching f plus the total match count.
// Invalid page/pageSize values fall back to 1 and 20.
func (s *ExpenseService) ListPage(ctx context.Context, userID string, f repo.ExpenseFilter, page, pageSize int) ([]domain.Expense, int64, error) {
	ctx, span := otel.Tracer("services/ExpenseService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, 0, ErrInvalidRange
	}
	if f.Category != "" {
		f.Category = normalizeCategory(f.Category)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := repo.CountExpenses(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Expense{}, 0, nil
	}
	items, err := repo.ListExpensesPage(ctx, s.DB, userID, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Update replaces the mutable fields of an expense owned by userID.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, in ExpenseInput) (*domain.Expense, error) {
	ctx, span := otel.Tracer("services/ExpenseService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("expense.id", id)))
	defer span.End()

	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	e := &domain.Expense{
		ID:          id,
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := repo.UpdateExpense(ctx, s.DB, e); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an expense owned by userID.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteExpense(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrExpenseNotFound
	}
	return err
}
