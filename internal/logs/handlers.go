package logs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitgenius/backend/internal/chain"
	"github.com/bitgenius/backend/internal/chaincall"
	"github.com/bitgenius/backend/internal/logstore"
	"github.com/bitgenius/backend/internal/metrics"
	"github.com/bitgenius/backend/internal/validation"
)

// defaultSender backs log appends that do not name a sender. Matches the
// dashboard's demo principal.
const defaultSender = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

// ChainGateway is the slice of the chain service the log surface needs.
type ChainGateway interface {
	Builder() *chaincall.Builder
	BuildTransaction(ctx context.Context, desc *chaincall.CallDescriptor) (json.RawMessage, error)
	GetAgentPerformance(ctx context.Context, agentID, periodDays int64) (map[string]any, error)
}

// Handler provides HTTP endpoints for agent logs.
type Handler struct {
	agg    *Aggregator
	store  logstore.Store
	chain  ChainGateway
	logger *slog.Logger
}

// NewHandler creates a new logs handler.
func NewHandler(agg *Aggregator, store logstore.Store, gw ChainGateway, logger *slog.Logger) *Handler {
	return &Handler{agg: agg, store: store, chain: gw, logger: logger}
}

// RegisterRoutes sets up log routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.GetAllLogs)
	r.POST("", h.CreateLog)
	r.GET("/agent/:id", h.GetAgentLogs)
	r.GET("/live/:id", h.GetLiveLogs)
	r.GET("/range", h.GetLogsByRange)
	r.GET("/txs/:id", h.GetTransactions)
	r.GET("/performance/:id", h.GetPerformance)
	r.GET("/export/:id", h.ExportLogs)
}

// createLogRequest is deliberately flat; embedding logstore.Entry would
// promote its UnmarshalJSON and drop the sender field.
type createLogRequest struct {
	AgentID       int64   `json:"agent_id"`
	Timestamp     int64   `json:"timestamp"`
	Action        string  `json:"action"`
	Status        string  `json:"status"`
	Details       string  `json:"details"`
	TransactionID *string `json:"transaction_id"`
	Amount        *int64  `json:"amount"`
	Fee           *int64  `json:"fee"`
	Sender        string  `json:"sender"`
}

func (r *createLogRequest) entry() logstore.Entry {
	e := logstore.Entry{
		AgentID:       r.AgentID,
		Action:        r.Action,
		Status:        r.Status,
		Details:       r.Details,
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		Fee:           r.Fee,
	}
	if r.Timestamp != 0 {
		e.Timestamp = time.Unix(r.Timestamp, 0).UTC()
	}
	return e
}

// CreateLog handles POST /v1/logs. The entry is persisted for immediate
// reads and an unsigned log-agent-action transaction is built for
// client-side signing.
func (h *Handler) CreateLog(c *gin.Context) {
	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	entry := req.entry()
	if err := entry.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	if req.Sender == "" {
		req.Sender = defaultSender
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	ctx := c.Request.Context()
	if err := h.store.Append(ctx, entry); err != nil {
		h.logger.Error("log append failed", "agent_id", entry.AgentID, "error", err)
		h.storeError(c, err)
		return
	}
	metrics.LogAppendsTotal.WithLabelValues(entry.Status).Inc()

	desc, err := h.chain.Builder().BuildLogActionCall(chaincall.LogActionParams{
		AgentID:       entry.AgentID,
		Action:        entry.Action,
		Status:        entry.Status,
		Details:       entry.Details,
		TransactionID: entry.TransactionID,
		Amount:        entry.Amount,
		Fee:           entry.Fee,
		Sender:        req.Sender,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	payload, err := h.chain.BuildTransaction(ctx, desc)
	if err != nil {
		h.logger.Error("log action tx build failed", "agent_id", entry.AgentID, "error", err)
		h.chainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction_payload": payload,
		"message":             "Log entry created successfully",
	})
}

// GetAllLogs handles GET /v1/logs.
func (h *Handler) GetAllLogs(c *gin.Context) {
	limit, ok := queryLimit(c, 50, 200)
	if !ok {
		return
	}
	entries, err := h.agg.AllLogs(c.Request.Context(), limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": applyFilters(c, entries)})
}

// GetAgentLogs handles GET /v1/logs/agent/:id.
func (h *Handler) GetAgentLogs(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 20, 100)
	if !ok {
		return
	}
	entries, err := h.agg.AgentLogs(c.Request.Context(), agentID, limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": applyFilters(c, entries)})
}

// GetLiveLogs handles GET /v1/logs/live/:id. Same source as agent logs
// with a tighter default window for console polling.
func (h *Handler) GetLiveLogs(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 10, 100)
	if !ok {
		return
	}
	entries, err := h.agg.AgentLogs(c.Request.Context(), agentID, limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

// GetLogsByRange handles GET /v1/logs/range?agent_id=&start=&end= with
// Unix-second bounds, both inclusive.
func (h *Handler) GetLogsByRange(c *gin.Context) {
	agentID, err := strconv.ParseInt(c.Query("agent_id"), 10, 64)
	if err != nil || agentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_agent_id", "message": "agent_id must be a positive integer"})
		return
	}
	start, err1 := strconv.ParseInt(c.Query("start"), 10, 64)
	end, err2 := strconv.ParseInt(c.Query("end"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range", "message": "start and end must be Unix-second timestamps"})
		return
	}

	entries, err := h.agg.LogsByRange(c.Request.Context(), agentID,
		time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC())
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range", "message": "start must not be after end"})
			return
		}
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

// GetTransactions handles GET /v1/logs/txs/:id.
func (h *Handler) GetTransactions(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 20, 100)
	if !ok {
		return
	}
	txs, err := h.agg.Transactions(c.Request.Context(), agentID, limit)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// GetPerformance handles GET /v1/logs/performance/:id?period=day|week|month.
// The rollup itself is computed on-chain; this endpoint only maps the
// period to days and forwards.
func (h *Handler) GetPerformance(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}

	var periodDays int64
	switch c.DefaultQuery("period", "day") {
	case "day":
		periodDays = 1
	case "week":
		periodDays = 7
	case "month":
		periodDays = 30
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period", "message": "period must be day, week, or month"})
		return
	}

	m, err := h.chain.GetAgentPerformance(c.Request.Context(), agentID, periodDays)
	if err != nil {
		h.chainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": m})
}

// ExportLogs handles GET /v1/logs/export/:id?format=json|csv&start=&end=.
func (h *Handler) ExportLogs(c *gin.Context) {
	agentID, ok := pathAgentID(c)
	if !ok {
		return
	}

	var start, end *time.Time
	if s := c.Query("start"); s != "" {
		ts, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range", "message": "start must be a Unix-second timestamp"})
			return
		}
		t := time.Unix(ts, 0).UTC()
		start = &t
	}
	if s := c.Query("end"); s != "" {
		ts, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range", "message": "end must be a Unix-second timestamp"})
			return
		}
		t := time.Unix(ts, 0).UTC()
		end = &t
	}

	ctx := c.Request.Context()
	switch c.DefaultQuery("format", "json") {
	case "json":
		entries, err := h.agg.ExportJSON(ctx, agentID, start, end)
		if err != nil {
			h.exportError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": entries})
	case "csv":
		data, err := h.agg.ExportCSV(ctx, agentID, start, end)
		if err != nil {
			h.exportError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename=agent_`+strconv.FormatInt(agentID, 10)+`_logs.csv`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_format", "message": "format must be json or csv"})
	}
}

func (h *Handler) exportError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_range", "message": "start must not be after end"})
		return
	}
	h.storeError(c, err)
}

func (h *Handler) storeError(c *gin.Context, err error) {
	if errors.Is(err, logstore.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable", "message": "Log store is unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "log_error", "message": err.Error()})
}

func (h *Handler) chainError(c *gin.Context, err error) {
	var verrs validation.ValidationErrors
	var verr *validation.ValidationError
	if errors.As(err, &verrs) || errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "chain_error", "message": rpcErr.Message})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "chain_error", "message": err.Error()})
}

// applyFilters narrows a listing by the optional action= and status=
// query parameters.
func applyFilters(c *gin.Context, entries []logstore.Entry) []logstore.Entry {
	if action := c.Query("action"); action != "" {
		entries = FilterByAction(entries, action)
	}
	if status := c.Query("status"); status != "" {
		entries = FilterByStatus(entries, status)
	}
	return entries
}

func pathAgentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_agent_id", "message": "agent id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, def, max int) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(def))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit",
			"message": "limit must be between 1 and " + strconv.Itoa(max)})
		return 0, false
	}
	return limit, true
}
