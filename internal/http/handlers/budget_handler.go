// Budget HTTP handlers.
//
//   - POST   /budgets                 (create)
//   - GET    /budgets?month=YYYY-MM   (list)
//   - GET    /budgets/status?month=   (spending against each budget)
//   - PUT    /budgets/{id}            (change limit)
//   - DELETE /budgets/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/services"
)

// CreateBudgetRequest is the JSON payload for creating a budget.
type CreateBudgetRequest struct {
	Category string          `json:"category" example:"Groceries"`
	Month    string          `json:"month" example:"2026-10"`
	Limit    decimal.Decimal `json:"limit" swaggertype:"string" example:"400"`
}

// UpdateBudgetRequest is the JSON payload for changing a budget limit.
type UpdateBudgetRequest struct {
	Limit decimal.Decimal `json:"limit" swaggertype:"string" example:"450"`
}

// BudgetStatusResponse lists spending against each budget of a month.
type BudgetStatusResponse struct {
	Month    string                  `json:"month"`
	Statuses []services.BudgetStatus `json:"statuses"`
}

// CreateBudget godoc
// @ID          createBudget
// @Summary     Create a monthly budget
// @Description One budget per category and month; a duplicate returns 409.
// @Tags        Budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.CreateBudgetRequest  true  "Budget"
// @Success     201  {object}  domain.Budget
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Budget exists"
// @Router      /budgets [post]
func (h *Handlers) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	b, err := h.Budgets.Create(c.Request.Context(), middleware.UserID(c), req.Category, req.Month, req.Limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, b)
}

// ListBudgets godoc
// @ID          listBudgets
// @Summary     List budgets
// @Tags        Budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month  query  string  false  "Month (YYYY-MM); all months when empty"
// @Success     200  {array}   domain.Budget
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /budgets [get]
func (h *Handlers) ListBudgets(c *gin.Context) {
	items, err := h.Budgets.List(c.Request.Context(), middleware.UserID(c), c.Query("month"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// BudgetStatus godoc
// @ID          budgetStatus
// @Summary     Budget status for a month
// @Description Spent, remaining and percentage used for each budget, computed from the month's expenses in the budget's category.
// @Tags        Budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month  query  string  false  "Month (YYYY-MM); defaults to the current month"
// @Success     200  {object}  handlers.BudgetStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /budgets/status [get]
func (h *Handlers) BudgetStatus(c *gin.Context) {
	month := c.DefaultQuery("month", services.MonthOf(h.now().UTC()))
	st, err := h.Budgets.Status(c.Request.Context(), middleware.UserID(c), month)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, BudgetStatusResponse{Month: month, Statuses: st})
}

// UpdateBudget godoc
// @ID          updateBudget
// @Summary     Change a budget limit
// @Tags        Budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                        true  "Budget ID"
// @Param       body  body  handlers.UpdateBudgetRequest  true  "New limit"
// @Success     200  {object}  domain.Budget
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /budgets/{id} [put]
func (h *Handlers) UpdateBudget(c *gin.Context) {
	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	b, err := h.Budgets.UpdateLimit(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// DeleteBudget godoc
// @ID          deleteBudget
// @Summary     Delete a budget
// @Tags        Budgets
// @Security    BearerAuth
// @Param       id  path  string  true  "Budget ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /budgets/{id} [delete]
func (h *Handlers) DeleteBudget(c *gin.Context) {
	if err := h.Budgets.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
