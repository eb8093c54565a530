package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/moneywise/internal/http/middleware"
)

// AnalysisRequest is the JSON payload for an AI analysis.
type AnalysisRequest struct {
	Prompt string `json:"prompt" example:"Where can I cut spending this month?"`
}

// AnalysisResponse carries the generated analysis.
type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

// Analyze godoc
// @ID          analyze
// @Summary     AI analysis of the caller's finances
// @Description Sends the prompt with the current month's budgets and recent expenses to the model. Requests are subject to a per-user quota; repeated prompts over unchanged data are answered from cache.
// @Tags        Analysis
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.AnalysisRequest  true  "Prompt"
// @Success     200  {object}  handlers.AnalysisResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Quota exceeded"
// @Failure     502  {object}  handlers.ErrorResponse  "Model unavailable"
// @Router      /analysis [post]
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	text, err := h.Analysis.Analyze(c.Request.Context(), middleware.UserID(c), req.Prompt)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, AnalysisResponse{Analysis: text})
}
