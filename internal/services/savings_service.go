package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/repo"
)

// SavingsInput carries user-supplied goal fields.
type SavingsInput struct {
	Name         string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
}

// SavingsService manages savings goals and contributions.
type SavingsService struct {
	DB *gorm.DB
}

// NewSavingsService constructs a SavingsService.
func NewSavingsService(db *gorm.DB) *SavingsService {
	return &SavingsService{DB: db}
}

func validateSavings(in SavingsInput) (SavingsInput, error) {
	in.Name = normalizeText(in.Name)
	if in.Name == "" {
		return in, ErrEmptyName
	}
	if len([]rune(in.Name)) > maxTitleLen {
		return in, ErrTooLong
	}
	if !validAmount(in.TargetAmount) {
		return in, ErrInvalidAmount
	}
	if in.Deadline != nil {
		d := dateOnly(*in.Deadline)
		in.Deadline = &d
	}
	return in, nil
}

// Create adds a goal with a zero current amount.
func (s *SavingsService) Create(ctx context.Context, userID string, in SavingsInput) (*domain.SavingsGoal, error) {
	in, err := validateSavings(in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	g := &domain.SavingsGoal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          in.Name,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Deadline:      in.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateSavingsGoal(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the user's goals.
func (s *SavingsService) List(ctx context.Context, userID string) ([]domain.SavingsGoal, error) {
	return repo.ListSavingsGoals(ctx, s.DB, userID)
}

// Update replaces name, target and deadline of a goal.
func (s *SavingsService) Update(ctx context.Context, userID, id string, in SavingsInput) (*domain.SavingsGoal, error) {
	in, err := validateSavings(in)
	if err != nil {
		return nil, err
	}
	g := &domain.SavingsGoal{ID: id, UserID: userID, Name: in.Name, TargetAmount: in.TargetAmount, Deadline: in.Deadline}
	if err := repo.UpdateSavingsGoal(ctx, s.DB, g); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	out, err := repo.GetSavingsGoal(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	return out, err
}

// Contribute adds amount to the goal's current amount.
func (s *SavingsService) Contribute(ctx context.Context, userID, id string, amount decimal.Decimal) (*domain.SavingsGoal, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	g, err := repo.AddSavingsContribution(ctx, s.DB, id, userID, amount)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	return g, err
}

// Delete removes a goal owned by userID.
func (s *SavingsService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteSavingsGoal(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}
