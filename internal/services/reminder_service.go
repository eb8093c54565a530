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

// ReminderInput carries user-supplied reminder fields.
type ReminderInput struct {
	Title       string
	Amount      decimal.Decimal
	DueDate     time.Time
	Category    string
	IsRecurring bool
	Frequency   *domain.Frequency
}

// ReminderService manages payment reminders. Notification delivery lives in
// ReminderNotifier.
type ReminderService struct {
	DB *gorm.DB
}

// NewReminderService constructs a ReminderService.
func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{DB: db}
}

func validateReminder(in ReminderInput) (ReminderInput, error) {
	in.Title = normalizeText(in.Title)
	if in.Title == "" {
		return in, ErrEmptyName
	}
	if len([]rune(in.Title)) > maxTitleLen {
		return in, ErrTooLong
	}
	if !validAmount(in.Amount) {
		return in, ErrInvalidAmount
	}
	if in.DueDate.IsZero() {
		return in, ErrInvalidDate
	}
	in.DueDate = dateOnly(in.DueDate)
	in.Category = normalizeCategory(in.Category)
	switch {
	case in.IsRecurring && (in.Frequency == nil || !in.Frequency.Valid()):
		return in, ErrInvalidFrequency
	case !in.IsRecurring && in.Frequency != nil:
		return in, ErrInvalidFrequency
	}
	return in, nil
}

// Create inserts a PENDING reminder that has never been notified.
func (s *ReminderService) Create(ctx context.Context, userID string, in ReminderInput) (*domain.Reminder, error) {
	in, err := validateReminder(in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r := &domain.Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		Category:    in.Category,
		Status:      domain.ReminderPending,
		IsRecurring: in.IsRecurring,
		Frequency:   in.Frequency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateReminder(ctx, s.DB, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns one reminder owned by userID.
func (s *ReminderService) Get(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	r, err := repo.GetReminder(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReminderNotFound
	}
	return r, err
}

// List returns the user's reminders, optionally filtered by status.
func (s *ReminderService) List(ctx context.Context, userID string, status domain.ReminderStatus) ([]domain.Reminder, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return repo.ListReminders(ctx, s.DB, userID, repo.ReminderFilter{Status: status})
}

// Update replaces the editable fields of a reminder owned by userID.
func (s *ReminderService) Update(ctx context.Context, userID, id string, in ReminderInput) (*domain.Reminder, error) {
	in, err := validateReminder(in)
	if err != nil {
		return nil, err
	}
	r := &domain.Reminder{
		ID:          id,
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		Category:    in.Category,
		IsRecurring: in.IsRecurring,
		Frequency:   in.Frequency,
	}
	if err := repo.UpdateReminder(ctx, s.DB, r); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a reminder owned by userID.
func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteReminder(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrReminderNotFound
	}
	return err
}

// MarkPaid moves a PENDING reminder to PAID. For a recurring reminder the
// next occurrence is created in the same transaction and returned as next.
func (s *ReminderService) MarkPaid(ctx context.Context, userID, id string) (paid, next *domain.Reminder, err error) {
	ctx, span := otel.Tracer("services/ReminderService").Start(ctx, "MarkPaid",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("reminder.id", id)))
	defer span.End()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetReminder(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if r.Status == domain.ReminderPaid {
			return ErrReminderPaid
		}
		if err := repo.MarkReminderPaid(ctx, tx, id, userID); err != nil {
			// The row was read above, so a miss means another request paid it first.
			if errors.Is(err, repo.ErrNotFound) {
				return ErrReminderPaid
			}
			return err
		}
		r.Status = domain.ReminderPaid
		paid = r

		due, ok := r.NextDueDate()
		if !ok {
			return nil
		}
		now := time.Now().UTC()
		n := &domain.Reminder{
			ID:          uuid.NewString(),
			UserID:      r.UserID,
			Title:       r.Title,
			Amount:      r.Amount,
			DueDate:     due,
			Category:    r.Category,
			Status:      domain.ReminderPending,
			IsRecurring: true,
			Frequency:   r.Frequency,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateReminder(ctx, tx, n); err != nil {
			return err
		}
		next = n
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return paid, next, nil
}
