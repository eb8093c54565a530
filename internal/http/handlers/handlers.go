// Package handlers implements the /api/v1 endpoints. Handlers are
// transport-thin: they bind and validate input, call the services through
// the interfaces below and map results onto HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
	"github.com/tbourn/moneywise/internal/utils"
)

// ExpenseService is implemented by *services.ExpenseService.
type ExpenseService interface {
	Create(ctx context.Context, userID string, in services.ExpenseInput) (*domain.Expense, error)
	Get(ctx context.Context, userID, id string) (*domain.Expense, error)
	ListPage(ctx context.Context, userID string, f repo.ExpenseFilter, page, pageSize int) ([]domain.Expense, int64, error)
	Update(ctx context.Context, userID, id string, in services.ExpenseInput) (*domain.Expense, error)
	Delete(ctx context.Context, userID, id string) error
}

// BudgetService is implemented by *services.BudgetService.
type BudgetService interface {
	Create(ctx context.Context, userID, category, month string, limit decimal.Decimal) (*domain.Budget, error)
	List(ctx context.Context, userID, month string) ([]domain.Budget, error)
	UpdateLimit(ctx context.Context, userID, id string, limit decimal.Decimal) (*domain.Budget, error)
	Delete(ctx context.Context, userID, id string) error
	Status(ctx context.Context, userID, month string) ([]services.BudgetStatus, error)
}

// SavingsService is implemented by *services.SavingsService.
type SavingsService interface {
	Create(ctx context.Context, userID string, in services.SavingsInput) (*domain.SavingsGoal, error)
	List(ctx context.Context, userID string) ([]domain.SavingsGoal, error)
	Update(ctx context.Context, userID, id string, in services.SavingsInput) (*domain.SavingsGoal, error)
	Contribute(ctx context.Context, userID, id string, amount decimal.Decimal) (*domain.SavingsGoal, error)
	Delete(ctx context.Context, userID, id string) error
}

// ReminderService is implemented by *services.ReminderService.
type ReminderService interface {
	Create(ctx context.Context, userID string, in services.ReminderInput) (*domain.Reminder, error)
	Get(ctx context.Context, userID, id string) (*domain.Reminder, error)
	List(ctx context.Context, userID string, status domain.ReminderStatus) ([]domain.Reminder, error)
	Update(ctx context.Context, userID, id string, in services.ReminderInput) (*domain.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
	MarkPaid(ctx context.Context, userID, id string) (paid, next *domain.Reminder, err error)
}

// ReminderNotifier is implemented by *services.ReminderNotifier.
type ReminderNotifier interface {
	ProcessReminders(ctx context.Context, scope services.Scope) ([]services.ReminderResult, error)
	SendNow(ctx context.Context, userID, id string) (*services.ReminderResult, error)
}

// AnalysisService is implemented by *services.AnalysisService.
type AnalysisService interface {
	Analyze(ctx context.Context, userID, prompt string) (string, error)
}

// IdempotencyStore remembers which resource a keyed create produced.
type IdempotencyStore interface {
	Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// ExpenseStatsFunc returns the count and latest update time of the expenses
// matching f, used to build list ETags.
type ExpenseStatsFunc func(ctx context.Context, userID string, f repo.ExpenseFilter) (int64, *time.Time, error)

// ReminderStatsFunc returns the count and latest update time of a user's
// reminders.
type ReminderStatsFunc func(ctx context.Context, userID string) (int64, *time.Time, error)

// Deps are the collaborators of Handlers. Idempotency and the stats funcs are
// optional.
type Deps struct {
	Expenses     ExpenseService
	Budgets      BudgetService
	Savings      SavingsService
	Reminders    ReminderService
	Notifier     ReminderNotifier
	Analysis     AnalysisService
	Idempotency  IdempotencyStore
	ExpenseStats ExpenseStatsFunc
	// ReminderStats enables ETags on the reminder list.
	ReminderStats ReminderStatsFunc
}

// Handlers groups the API endpoints.
type Handlers struct {
	Deps
	now func() time.Time
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{Deps: d, now: time.Now}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	tp := utils.TotalPages(total, pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: tp, HasNext: page < tp}
}

func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"))
}

// remember records the outcome of a keyed create. Failures only cost the
// replay protection, so they are logged and ignored.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, scope, ok := middleware.GetIdempotencyKey(c)
	if !ok || h.Idempotency == nil {
		return
	}
	if err := h.Idempotency.Remember(c.Request.Context(), middleware.UserID(c), scope, key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record not stored")
	}
}

// replay serves a repeated keyed create from the stored resource. It reports
// false when there is nothing to replay or the resource no longer exists.
func replay[T any](c *gin.Context, load func(ctx context.Context, userID, id string) (T, error)) bool {
	id, ok := middleware.ReplayedResourceID(c)
	if !ok {
		return false
	}
	res, err := load(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		return false
	}
	c.Header("Idempotent-Replayed", "true")
	c.JSON(http.StatusCreated, res)
	return true
}

// notModified sets a weak ETag and answers 304 when the client already holds
// it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func unixNano(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
