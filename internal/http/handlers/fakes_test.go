package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
)

type fakeExpenses struct {
	created  []services.ExpenseInput
	items    map[string]*domain.Expense
	lastList repo.ExpenseFilter
	listed   int
}

func newFakeExpenses() *fakeExpenses {
	return &fakeExpenses{items: map[string]*domain.Expense{}}
}

func (f *fakeExpenses) Create(_ context.Context, userID string, in services.ExpenseInput) (*domain.Expense, error) {
	if !in.Amount.IsPositive() {
		return nil, services.ErrInvalidAmount
	}
	f.created = append(f.created, in)
	e := &domain.Expense{ID: "e-new", UserID: userID, Amount: in.Amount, Category: in.Category, Date: in.Date}
	f.items[e.ID] = e
	return e, nil
}

func (f *fakeExpenses) Get(_ context.Context, userID, id string) (*domain.Expense, error) {
	e, ok := f.items[id]
	if !ok || e.UserID != userID {
		return nil, services.ErrExpenseNotFound
	}
	return e, nil
}

func (f *fakeExpenses) ListPage(_ context.Context, userID string, flt repo.ExpenseFilter, page, pageSize int) ([]domain.Expense, int64, error) {
	f.lastList = flt
	f.listed++
	out := []domain.Expense{}
	for _, e := range f.items {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeExpenses) Update(_ context.Context, userID, id string, in services.ExpenseInput) (*domain.Expense, error) {
	e, err := f.Get(context.Background(), userID, id)
	if err != nil {
		return nil, err
	}
	e.Amount = in.Amount
	return e, nil
}

func (f *fakeExpenses) Delete(_ context.Context, userID, id string) error {
	if _, err := f.Get(context.Background(), userID, id); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

type fakeBudgets struct {
	statusMonth string
	err         error
}

func (f *fakeBudgets) Create(_ context.Context, userID, category, month string, limit decimal.Decimal) (*domain.Budget, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Budget{ID: "b1", UserID: userID, Category: category, Month: month, Limit: limit}, nil
}

func (f *fakeBudgets) List(context.Context, string, string) ([]domain.Budget, error) {
	return []domain.Budget{}, f.err
}

func (f *fakeBudgets) UpdateLimit(_ context.Context, userID, id string, limit decimal.Decimal) (*domain.Budget, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Budget{ID: id, UserID: userID, Limit: limit}, nil
}

func (f *fakeBudgets) Delete(context.Context, string, string) error { return f.err }

func (f *fakeBudgets) Status(_ context.Context, _ string, month string) ([]services.BudgetStatus, error) {
	f.statusMonth = month
	return []services.BudgetStatus{}, f.err
}

type fakeSavings struct {
	contributed decimal.Decimal
	lastInput   services.SavingsInput
}

func (f *fakeSavings) Create(_ context.Context, userID string, in services.SavingsInput) (*domain.SavingsGoal, error) {
	f.lastInput = in
	return &domain.SavingsGoal{ID: "g1", UserID: userID, Name: in.Name, TargetAmount: in.TargetAmount, Deadline: in.Deadline}, nil
}

func (f *fakeSavings) List(context.Context, string) ([]domain.SavingsGoal, error) {
	return []domain.SavingsGoal{}, nil
}

func (f *fakeSavings) Update(_ context.Context, _ string, id string, _ services.SavingsInput) (*domain.SavingsGoal, error) {
	if id != "g1" {
		return nil, services.ErrGoalNotFound
	}
	return &domain.SavingsGoal{ID: id}, nil
}

func (f *fakeSavings) Contribute(_ context.Context, _ string, id string, amount decimal.Decimal) (*domain.SavingsGoal, error) {
	if !amount.IsPositive() {
		return nil, services.ErrInvalidAmount
	}
	f.contributed = f.contributed.Add(amount)
	return &domain.SavingsGoal{ID: id, CurrentAmount: f.contributed}, nil
}

func (f *fakeSavings) Delete(context.Context, string, string) error { return nil }

type fakeReminders struct {
	items      map[string]*domain.Reminder
	lastInput  services.ReminderInput
	lastStatus domain.ReminderStatus
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{items: map[string]*domain.Reminder{}}
}

func (f *fakeReminders) Create(_ context.Context, userID string, in services.ReminderInput) (*domain.Reminder, error) {
	f.lastInput = in
	r := &domain.Reminder{ID: "r-new", UserID: userID, Title: in.Title, DueDate: in.DueDate, Status: domain.ReminderPending}
	f.items[r.ID] = r
	return r, nil
}

func (f *fakeReminders) Get(_ context.Context, userID, id string) (*domain.Reminder, error) {
	r, ok := f.items[id]
	if !ok || r.UserID != userID {
		return nil, services.ErrReminderNotFound
	}
	return r, nil
}

func (f *fakeReminders) List(_ context.Context, _ string, status domain.ReminderStatus) ([]domain.Reminder, error) {
	f.lastStatus = status
	if status != "" && !status.Valid() {
		return nil, services.ErrInvalidStatus
	}
	return []domain.Reminder{}, nil
}

func (f *fakeReminders) Update(_ context.Context, userID, id string, _ services.ReminderInput) (*domain.Reminder, error) {
	return f.Get(context.Background(), userID, id)
}

func (f *fakeReminders) Delete(_ context.Context, userID, id string) error {
	_, err := f.Get(context.Background(), userID, id)
	return err
}

func (f *fakeReminders) MarkPaid(_ context.Context, userID, id string) (*domain.Reminder, *domain.Reminder, error) {
	r, err := f.Get(context.Background(), userID, id)
	if err != nil {
		return nil, nil, err
	}
	if r.Status == domain.ReminderPaid {
		return nil, nil, services.ErrReminderPaid
	}
	r.Status = domain.ReminderPaid
	if !r.IsRecurring {
		return r, nil, nil
	}
	next := &domain.Reminder{ID: "r-next", UserID: userID, Status: domain.ReminderPending}
	return r, next, nil
}

type fakeNotifier struct {
	scopes  []services.Scope
	results []services.ReminderResult
	sendErr error
}

func (f *fakeNotifier) ProcessReminders(_ context.Context, scope services.Scope) ([]services.ReminderResult, error) {
	f.scopes = append(f.scopes, scope)
	return f.results, nil
}

func (f *fakeNotifier) SendNow(_ context.Context, _ string, id string) (*services.ReminderResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &services.ReminderResult{ID: id, Outcome: services.OutcomeSent}, nil
}

type fakeAnalysis struct {
	text   string
	err    error
	prompt string
}

func (f *fakeAnalysis) Analyze(_ context.Context, _ string, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type rememberCall struct {
	userID, scope, key, resourceID string
	status                         int
}

type fakeIdem struct {
	calls []rememberCall
}

func (f *fakeIdem) Remember(_ context.Context, userID, scope, key, resourceID string, status int) error {
	f.calls = append(f.calls, rememberCall{userID, scope, key, resourceID, status})
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
}
