// Reminder HTTP handlers.
//
//   - POST   /reminders             (create; honors Idempotency-Key)
//   - GET    /reminders?status=     (list)
//   - POST   /reminders/process     (run notifications for the caller)
//   - GET    /reminders/{id}
//   - PUT    /reminders/{id}
//   - DELETE /reminders/{id}
//   - POST   /reminders/{id}/paid   (mark paid; spawns the next occurrence)
//   - POST   /reminders/{id}/send   (notify now)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/moneywise/internal/domain"
	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/services"
)

// ReminderRequest is the JSON payload for creating or replacing a reminder.
type ReminderRequest struct {
	Title       string          `json:"title" example:"Rent"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"950.00"`
	DueDate     string          `json:"due_date" example:"2026-11-01"`
	Category    string          `json:"category,omitempty" example:"Housing"`
	IsRecurring bool            `json:"is_recurring"`
	// Frequency is WEEKLY, MONTHLY or YEARLY and required when IsRecurring.
	Frequency string `json:"frequency,omitempty" example:"MONTHLY"`
}

// MarkPaidResponse is returned by MarkReminderPaid. Next is the spawned
// occurrence of a recurring reminder.
type MarkPaidResponse struct {
	Paid *domain.Reminder `json:"paid"`
	Next *domain.Reminder `json:"next,omitempty"`
}

// ProcessResponse summarizes a notification run.
type ProcessResponse struct {
	Processed int                       `json:"processed"`
	Sent      int                       `json:"sent"`
	Skipped   int                       `json:"skipped"`
	Failed    int                       `json:"failed"`
	Errors    int                       `json:"errors"`
	Results   []services.ReminderResult `json:"results"`
}

func summarize(results []services.ReminderResult) ProcessResponse {
	out := ProcessResponse{Processed: len(results), Results: results}
	for _, r := range results {
		switch r.Outcome {
		case services.OutcomeSent:
			out.Sent++
		case services.OutcomeSkipped:
			out.Skipped++
		case services.OutcomeFailed:
			out.Failed++
		case services.OutcomeError:
			out.Errors++
		}
	}
	if out.Results == nil {
		out.Results = []services.ReminderResult{}
	}
	return out
}

func reminderInput(req ReminderRequest) (services.ReminderInput, error) {
	in := services.ReminderInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    req.Category,
		IsRecurring: req.IsRecurring,
	}
	due, err := services.ParseDate(req.DueDate)
	if err != nil {
		return in, err
	}
	in.DueDate = due
	if f := strings.ToUpper(strings.TrimSpace(req.Frequency)); f != "" {
		freq := domain.Frequency(f)
		in.Frequency = &freq
	}
	return in, nil
}

func bindReminder(c *gin.Context) (services.ReminderInput, bool) {
	var req ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return services.ReminderInput{}, false
	}
	in, err := reminderInput(req)
	if err != nil {
		serviceError(c, err)
		return in, false
	}
	return in, true
}

// CreateReminder godoc
// @ID          createReminder
// @Summary     Create a payment reminder
// @Description Creates a PENDING reminder. With an Idempotency-Key, a retried request returns the original reminder and sets Idempotent-Replayed.
// @Tags        Reminders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                    false  "Idempotency key"
// @Param       body             body    handlers.ReminderRequest  true   "Reminder"
// @Success     201  {object}  domain.Reminder
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /reminders [post]
func (h *Handlers) CreateReminder(c *gin.Context) {
	if replay(c, h.Reminders.Get) {
		return
	}
	in, valid := bindReminder(c)
	if !valid {
		return
	}
	r, err := h.Reminders.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	h.remember(c, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// ListReminders godoc
// @ID          listReminders
// @Summary     List reminders
// @Description Ordered by due date, earliest first.
// @Tags        Reminders
// @Produce     json
// @Security    BearerAuth
// @Param       status         query   string  false  "PENDING or PAID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Reminder
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /reminders [get]
func (h *Handlers) ListReminders(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	status := domain.ReminderStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))

	if h.ReminderStats != nil && (status == "" || status.Valid()) {
		if count, maxTS, err := h.ReminderStats(ctx, uid); err == nil {
			if notModified(c, fmt.Sprintf(`W/"reminders:%d:%d:%s"`, count, unixNano(maxTS), status)) {
				return
			}
		}
	}

	items, err := h.Reminders.List(ctx, uid, status)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetReminder godoc
// @ID          getReminder
// @Summary     Get a reminder
// @Tags        Reminders
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Reminder ID"
// @Success     200  {object}  domain.Reminder
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reminders/{id} [get]
func (h *Handlers) GetReminder(c *gin.Context) {
	r, err := h.Reminders.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// UpdateReminder godoc
// @ID          updateReminder
// @Summary     Replace a reminder
// @Tags        Reminders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                    true  "Reminder ID"
// @Param       body  body  handlers.ReminderRequest  true  "Reminder"
// @Success     200  {object}  domain.Reminder
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reminders/{id} [put]
func (h *Handlers) UpdateReminder(c *gin.Context) {
	in, valid := bindReminder(c)
	if !valid {
		return
	}
	r, err := h.Reminders.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteReminder godoc
// @ID          deleteReminder
// @Summary     Delete a reminder
// @Tags        Reminders
// @Security    BearerAuth
// @Param       id  path  string  true  "Reminder ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /reminders/{id} [delete]
func (h *Handlers) DeleteReminder(c *gin.Context) {
	if err := h.Reminders.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// MarkReminderPaid godoc
// @ID          markReminderPaid
// @Summary     Mark a reminder paid
// @Description A recurring reminder spawns its next occurrence, returned as next.
// @Tags        Reminders
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Reminder ID"
// @Success     200  {object}  handlers.MarkPaidResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already paid"
// @Router      /reminders/{id}/paid [post]
func (h *Handlers) MarkReminderPaid(c *gin.Context) {
	paid, next, err := h.Reminders.MarkPaid(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, MarkPaidResponse{Paid: paid, Next: next})
}

// SendReminder godoc
// @ID          sendReminder
// @Summary     Send a reminder e-mail now
// @Description Ignores the notification thresholds. A transport failure is reported in the result, not as an HTTP error.
// @Tags        Reminders
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Reminder ID"
// @Success     200  {object}  services.ReminderResult
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already paid"
// @Router      /reminders/{id}/send [post]
func (h *Handlers) SendReminder(c *gin.Context) {
	res, err := h.Notifier.SendNow(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ProcessMyReminders godoc
// @ID          processMyReminders
// @Summary     Run notifications for the caller's reminders
// @Tags        Reminders
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ProcessResponse
// @Router      /reminders/process [post]
func (h *Handlers) ProcessMyReminders(c *gin.Context) {
	results, err := h.Notifier.ProcessReminders(c.Request.Context(), services.Scope{UserID: middleware.UserID(c)})
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, summarize(results))
}
