package ai

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitgenius/backend/internal/logstore"
)

// Handler serves the assistant endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the assistant endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/suggest-name", h.SuggestName)
	rg.POST("/validate-trigger", h.ValidateTrigger)
	rg.POST("/summarize-logs", h.SummarizeLogs)
	rg.GET("/help", h.GetHelp)
	rg.POST("/explain-strategy", h.ExplainStrategy)
}

// SuggestName handles GET /suggest-name?goal=...
func (h *Handler) SuggestName(c *gin.Context) {
	goal := c.Query("goal")
	if goal == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_goal",
			"message": "goal query parameter is required",
		})
		return
	}

	names, err := h.service.SuggestNames(c.Request.Context(), goal)
	if err != nil {
		h.completionError(c, "suggest names", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": names})
}

type triggerRequest struct {
	Trigger string `json:"trigger" binding:"required"`
}

// ValidateTrigger handles POST /validate-trigger.
func (h *Handler) ValidateTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "trigger is required",
		})
		return
	}

	verdict, err := h.service.ValidateTrigger(c.Request.Context(), req.Trigger)
	if err != nil {
		h.completionError(c, "validate trigger", err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// SummarizeLogs handles POST /summarize-logs with a JSON array of log
// entries in the body.
func (h *Handler) SummarizeLogs(c *gin.Context) {
	var entries []logstore.Entry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "body must be a JSON array of log entries",
		})
		return
	}

	summary, err := h.service.SummarizeLogs(c.Request.Context(), entries)
	if err != nil {
		h.completionError(c, "summarize logs", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHelp handles GET /help?context=...
func (h *Handler) GetHelp(c *gin.Context) {
	userContext := c.Query("context")
	if userContext == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_context",
			"message": "context query parameter is required",
		})
		return
	}

	help, err := h.service.GetHelp(c.Request.Context(), userContext)
	if err != nil {
		h.completionError(c, "get help", err)
		return
	}
	c.JSON(http.StatusOK, help)
}

type strategyRequest struct {
	Strategy string `json:"strategy" binding:"required"`
}

// ExplainStrategy handles POST /explain-strategy.
func (h *Handler) ExplainStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "strategy is required",
		})
		return
	}

	explanation, err := h.service.ExplainStrategy(c.Request.Context(), req.Strategy)
	if err != nil {
		h.completionError(c, "explain strategy", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}

func (h *Handler) completionError(c *gin.Context, op string, err error) {
	h.logger.Error("assistant completion failed", "op", op, "error", err)
	c.JSON(http.StatusBadGateway, gin.H{
		"error":   "ai_unavailable",
		"message": "assistant is temporarily unavailable",
	})
}
