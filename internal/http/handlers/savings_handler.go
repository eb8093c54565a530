// Savings goal HTTP handlers.
//
//   - POST   /savings                      (create)
//   - GET    /savings                      (list)
//   - PUT    /savings/{id}
//   - DELETE /savings/{id}
//   - POST   /savings/{id}/contributions   (add to the current amount)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/services"
)

// SavingsGoalRequest is the JSON payload for creating or replacing a goal.
type SavingsGoalRequest struct {
	Name         string          `json:"name" example:"Emergency fund"`
	TargetAmount decimal.Decimal `json:"target_amount" swaggertype:"string" example:"5000"`
	// Deadline is optional (YYYY-MM-DD or RFC 3339).
	Deadline string `json:"deadline,omitempty" example:"2027-06-30"`
}

// ContributionRequest is the JSON payload for a contribution.
type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"250"`
}

func savingsInput(req SavingsGoalRequest) (services.SavingsInput, error) {
	in := services.SavingsInput{Name: req.Name, TargetAmount: req.TargetAmount}
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := services.ParseDate(req.Deadline)
		if err != nil {
			return in, err
		}
		in.Deadline = &d
	}
	return in, nil
}

func (h *Handlers) bindSavings(c *gin.Context) (services.SavingsInput, bool) {
	var req SavingsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return services.SavingsInput{}, false
	}
	in, err := savingsInput(req)
	if err != nil {
		serviceError(c, err)
		return in, false
	}
	return in, true
}

// CreateSavingsGoal godoc
// @ID          createSavingsGoal
// @Summary     Create a savings goal
// @Tags        Savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SavingsGoalRequest  true  "Goal"
// @Success     201  {object}  domain.SavingsGoal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /savings [post]
func (h *Handlers) CreateSavingsGoal(c *gin.Context) {
	in, valid := h.bindSavings(c)
	if !valid {
		return
	}
	g, err := h.Savings.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, g)
}

// ListSavingsGoals godoc
// @ID          listSavingsGoals
// @Summary     List savings goals
// @Tags        Savings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.SavingsGoal
// @Router      /savings [get]
func (h *Handlers) ListSavingsGoals(c *gin.Context) {
	items, err := h.Savings.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// UpdateSavingsGoal godoc
// @ID          updateSavingsGoal
// @Summary     Replace a savings goal
// @Description Replaces name, target and deadline. The current amount only changes through contributions.
// @Tags        Savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                       true  "Goal ID"
// @Param       body  body  handlers.SavingsGoalRequest  true  "Goal"
// @Success     200  {object}  domain.SavingsGoal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /savings/{id} [put]
func (h *Handlers) UpdateSavingsGoal(c *gin.Context) {
	in, valid := h.bindSavings(c)
	if !valid {
		return
	}
	g, err := h.Savings.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}

// ContributeSavingsGoal godoc
// @ID          contributeSavingsGoal
// @Summary     Add a contribution
// @Tags        Savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                        true  "Goal ID"
// @Param       body  body  handlers.ContributionRequest  true  "Contribution"
// @Success     200  {object}  domain.SavingsGoal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /savings/{id}/contributions [post]
func (h *Handlers) ContributeSavingsGoal(c *gin.Context) {
	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	g, err := h.Savings.Contribute(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Amount)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}

// DeleteSavingsGoal godoc
// @ID          deleteSavingsGoal
// @Summary     Delete a savings goal
// @Tags        Savings
// @Security    BearerAuth
// @Param       id  path  string  true  "Goal ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /savings/{id} [delete]
func (h *Handlers) DeleteSavingsGoal(c *gin.Context) {
	if err := h.Savings.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

