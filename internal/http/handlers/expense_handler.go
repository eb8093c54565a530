// Expense HTTP handlers.
//
//   - POST   /expenses        (create, Idempotency-Key aware)
//   - GET    /expenses        (list, filters, paginated, weak ETag)
//   - GET    /expenses/{id}
//   - PUT    /expenses/{id}
//   - DELETE /expenses/{id}
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
)

// ExpenseRequest is the JSON payload for creating or replacing an expense.
type ExpenseRequest struct {
	// Amount accepts a JSON number or string; positive with at most 2 decimals.
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Category string          `json:"category" example:"Groceries"`
	// Description is optional free text (max 500 chars).
	Description string `json:"description" example:"weekly shop"`
	// Date is YYYY-MM-DD or RFC 3339; defaults to today.
	Date string `json:"date" example:"2026-10-15"`
}

// ListExpensesResponse wraps a page of expenses and pagination information.
type ListExpensesResponse struct {
	Expenses   []domain.Expense `json:"expenses"`
	Pagination Pagination       `json:"pagination"`
}

func (h *Handlers) expenseInput(req ExpenseRequest) (services.ExpenseInput, error) {
	in := services.ExpenseInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        h.now().UTC(),
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := services.ParseDate(req.Date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	return in, nil
}

// CreateExpense godoc
// @ID          createExpense
// @Summary     Record an expense
// @Description Creates an expense for the caller. Repeating the request with the same Idempotency-Key returns the original expense.
// @Tags        Expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Client-generated key for safe retries"
// @Param       body  body  handlers.ExpenseRequest  true  "Expense"
// @Success     201  {object}  domain.Expense
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /expenses [post]
func (h *Handlers) CreateExpense(c *gin.Context) {
	if replay(c, h.Expenses.Get) {
		return
	}
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := h.expenseInput(req)
	if err != nil {
		serviceError(c, err)
		return
	}
	e, err := h.Expenses.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	h.remember(c, e.ID, http.StatusCreated)
	ok(c, http.StatusCreated, e)
}

// ListExpenses godoc
// @ID          listExpenses
// @Summary     List expenses (paginated)
// @Description Returns the caller's expenses, newest first. from/to are inclusive dates. Supports weak ETag via If-None-Match.
// @Tags        Expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from           query   string  false  "First day (YYYY-MM-DD)"
// @Param       to             query   string  false  "Last day (YYYY-MM-DD)"
// @Param       category       query   string  false  "Category filter"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListExpensesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /expenses [get]
func (h *Handlers) ListExpenses(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	var f repo.ExpenseFilter
	if v := c.Query("from"); v != "" {
		d, err := services.ParseDate(v)
		if err != nil {
			serviceError(c, err)
			return
		}
		f.From = d
	}
	if v := c.Query("to"); v != "" {
		d, err := services.ParseDate(v)
		if err != nil {
			serviceError(c, err)
			return
		}
		f.To = d.AddDate(0, 0, 1)
	}
	f.Category = c.Query("category")

	if h.ExpenseStats != nil {
		if count, maxTS, err := h.ExpenseStats(ctx, uid, f); err == nil {
			etag := fmt.Sprintf(`W/"expenses:%d:%d:%d:%d:%x"`, count, unixNano(maxTS), page, pageSize, c.Request.URL.RawQuery)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.Expenses.ListPage(ctx, uid, f, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListExpensesResponse{
		Expenses:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetExpense godoc
// @ID          getExpense
// @Summary     Get an expense
// @Tags        Expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Expense ID"
// @Success     200  {object}  domain.Expense
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /expenses/{id} [get]
func (h *Handlers) GetExpense(c *gin.Context) {
	e, err := h.Expenses.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// UpdateExpense godoc
// @ID          updateExpense
// @Summary     Replace an expense
// @Tags        Expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                   true  "Expense ID"
// @Param       body  body  handlers.ExpenseRequest  true  "Expense"
// @Success     200  {object}  domain.Expense
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /expenses/{id} [put]
func (h *Handlers) UpdateExpense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := h.expenseInput(req)
	if err != nil {
		serviceError(c, err)
		return
	}
	e, err := h.Expenses.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteExpense godoc
// @ID          deleteExpense
// @Summary     Delete an expense
// @Tags        Expenses
// @Security    BearerAuth
// @Param       id  path  string  true  "Expense ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /expenses/{id} [delete]
func (h *Handlers) DeleteExpense(c *gin.Context) {
	if err := h.Expenses.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
