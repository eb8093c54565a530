package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/moneywise/internal/services"
)

// ProcessAllReminders godoc
// @ID          processAllReminders
// @Summary     Run notifications for every user
// @Description Scheduler hook guarded by the cron secret. Per-reminder failures are reported in the results.
// @Tags        Cron
// @Produce     json
// @Security    CronSecret
// @Success     200  {object}  handlers.ProcessResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /cron/reminders [post]
func (h *Handlers) ProcessAllReminders(c *gin.Context) {
	results, err := h.Notifier.ProcessReminders(c.Request.Context(), services.Scope{})
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, summarize(results))
}
