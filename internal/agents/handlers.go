package agents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitgenius/backend/internal/chain"
	"github.com/bitgenius/backend/internal/chaincall"
	"github.com/bitgenius/backend/internal/status"
	"github.com/bitgenius/backend/internal/validation"
)

// signBroadcastMessage tells the dashboard what to do with a payload.
const signBroadcastMessage = "Transaction payload prepared successfully. Sign and broadcast this transaction using Stacks.js."

// ChainGateway is the slice of the chain service the agent surface needs.
type ChainGateway interface {
	Builder() *chaincall.Builder
	BuildTransaction(ctx context.Context, desc *chaincall.CallDescriptor) (json.RawMessage, error)
	GetAgentByID(ctx context.Context, agentID int64) (map[string]any, error)
	GetAgentStatus(ctx context.Context, agentID int64) (string, error)
	GetTemplates(ctx context.Context) ([]map[string]any, error)
}

// Handler provides HTTP endpoints for agent lifecycle operations.
type Handler struct {
	chain  ChainGateway
	mirror StatusStore
	logger *slog.Logger
}

// NewHandler creates a new agents handler.
func NewHandler(gw ChainGateway, mirror StatusStore, logger *slog.Logger) *Handler {
	return &Handler{chain: gw, mirror: mirror, logger: logger}
}

// RegisterRoutes sets up agent routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/templates", h.GetTemplates)
	r.POST("", h.CreateAgent)
	r.POST("/:id/status", h.UpdateStatus)
	r.GET("/:id", h.GetAgent)
	r.GET("/:id/status", h.GetStatus)
}

// CreateAgent handles POST /v1/agents. The backend never signs;
// registration returns an unsigned payload for the caller's wallet.
func (h *Handler) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	desc, err := h.chain.Builder().BuildRegisterAgentCall(chaincall.RegisterAgentParams{
		Name:             req.Name,
		AgentType:        req.AgentType,
		Strategy:         req.Strategy,
		TriggerCondition: req.TriggerCondition,
		PrivacyEnabled:   req.PrivacyEnabled,
		Allocation:       req.Allocation,
		Sender:           req.Sender,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	payload, err := h.chain.BuildTransaction(c.Request.Context(), desc)
	if err != nil {
		h.logger.Error("register agent tx build failed", "name", req.Name, "error", err)
		h.chainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction_payload": payload,
		"message":             signBroadcastMessage,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Sender string `json:"sender"`
}

// UpdateStatus handles POST /v1/agents/:id/status. Raw status aliases
// are accepted and normalized here, once; the call builder only ever
// sees canonical values. The new status is also mirrored locally so
// the UI reads it before the transaction confirms.
func (h *Handler) UpdateStatus(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if req.Sender == "" || !validation.IsValidPrincipal(req.Sender) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "sender: must be a valid Stacks principal address"})
		return
	}

	canonical, err := status.Normalize(req.Status)
	if err != nil {
		var invalid *status.InvalidStatusError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "invalid_status",
				"message":  invalid.Error(),
				"accepted": invalid.Accepted,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status", "message": err.Error()})
		return
	}

	desc, err := h.chain.Builder().BuildUpdateStatusCall(agentID, canonical, req.Sender)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	payload, err := h.chain.BuildTransaction(ctx, desc)
	if err != nil {
		h.logger.Error("status update tx build failed", "agent_id", agentID, "error", err)
		h.chainError(c, err)
		return
	}

	if err := h.mirror.SetStatus(ctx, agentID, canonical); err != nil {
		// The transaction payload is already built; a mirror failure
		// only delays UI feedback.
		h.logger.Warn("status mirror write failed", "agent_id", agentID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_payload": payload,
		"status":              canonical,
		"message":             signBroadcastMessage,
	})
}

// GetAgent handles GET /v1/agents/:id.
func (h *Handler) GetAgent(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}

	tuple, err := h.chain.GetAgentByID(c.Request.Context(), agentID)
	if err != nil {
		if errors.Is(err, chain.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent_not_found",
				"message": "Agent " + strconv.FormatInt(agentID, 10) + " not found"})
			return
		}
		h.chainError(c, err)
		return
	}

	agent := agentFromTuple(tuple)
	agent.AgentID = agentID
	c.JSON(http.StatusOK, agent)
}

// GetStatus handles GET /v1/agents/:id/status, serving the local
// mirror when present and reading the chain when not. The mirror only
// knows about statuses written through this backend.
func (h *Handler) GetStatus(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	rec, err := h.mirror.GetStatus(ctx, agentID)
	if err == nil {
		c.JSON(http.StatusOK, rec)
		return
	}
	if !errors.Is(err, ErrStatusNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status_error", "message": err.Error()})
		return
	}

	raw, err := h.chain.GetAgentStatus(ctx, agentID)
	if err != nil {
		h.chainError(c, err)
		return
	}
	// On-chain values pass through the same alias table as writes;
	// anything the contract invented is reported as-is.
	if canonical, err := status.Normalize(raw); err == nil {
		raw = canonical
	}
	c.JSON(http.StatusOK, gin.H{
		"agent_id": agentID,
		"status":   raw,
		"source":   "chain",
	})
}

// GetTemplates handles GET /v1/agents/templates.
func (h *Handler) GetTemplates(c *gin.Context) {
	tuples, err := h.chain.GetTemplates(c.Request.Context())
	if err != nil {
		h.chainError(c, err)
		return
	}

	templates := make([]Template, 0, len(tuples))
	for _, m := range tuples {
		templates = append(templates, templateFromTuple(m))
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) chainError(c *gin.Context, err error) {
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "chain_error", "message": rpcErr.Message})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "chain_error", "message": err.Error()})
}

func pathAgentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_agent_id", "message": "agent id must be a positive integer"})
		return 0, false
	}
	return id, true
}
