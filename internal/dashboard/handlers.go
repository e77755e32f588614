// Package dashboard serves the aggregated read endpoints behind the
// frontend dashboard: ownership overview, live console, performance,
// wallet data, and notifications.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitgenius/backend/internal/btc"
	"github.com/bitgenius/backend/internal/chain"
	"github.com/bitgenius/backend/internal/logstore"
	"github.com/bitgenius/backend/internal/notify"
	"github.com/bitgenius/backend/internal/status"
	"github.com/bitgenius/backend/internal/validation"
)

const (
	defaultConsoleLimit = 10
	maxConsoleLimit     = 100

	defaultNotificationLimit = 10
	maxNotificationLimit     = 50

	walletTxLimit = 10
)

// ChainGateway is the slice of the chain service the dashboard reads.
type ChainGateway interface {
	GetAgentsByOwner(ctx context.Context, owner string) ([]map[string]any, error)
	GetMostRecentLog(ctx context.Context, agentID int64) (map[string]any, error)
	GetAgentPerformance(ctx context.Context, agentID, periodDays int64) (map[string]any, error)
}

// WalletGateway is the slice of the explorer client the dashboard uses.
type WalletGateway interface {
	GetAddressInfo(ctx context.Context, address string) (btc.AddressInfo, error)
	GetAddressTransactions(ctx context.Context, address string, limit int) ([]json.RawMessage, error)
	GetPrice(ctx context.Context) (float64, error)
}

// Overview tallies a user's agents by lifecycle status.
type Overview struct {
	AgentCount    int     `json:"agent_count"`
	ActiveAgents  int     `json:"active_agents"`
	IdleAgents    int     `json:"idle_agents"`
	StoppedAgents int     `json:"stopped_agents"`
	WalletBalance float64 `json:"wallet_balance"`
}

// Handler serves the dashboard endpoints.
type Handler struct {
	chain         ChainGateway
	logs          logstore.Store
	notifications notify.Store
	wallet        WalletGateway
	logger        *slog.Logger
}

func NewHandler(chainGW ChainGateway, logs logstore.Store, notifications notify.Store, wallet WalletGateway, logger *slog.Logger) *Handler {
	return &Handler{
		chain:         chainGW,
		logs:          logs,
		notifications: notifications,
		wallet:        wallet,
		logger:        logger,
	}
}

// RegisterRoutes mounts the dashboard endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/overview/:principal", h.GetOverview)
	rg.GET("/live-console/:id", h.GetLiveConsole)
	rg.GET("/performance/:id", h.GetPerformance)
	rg.GET("/wallet/:address", h.GetWallet)
	rg.GET("/notifications/:principal", h.GetNotifications)
	rg.POST("/notifications/:principal/:notificationID/read", h.MarkNotificationRead)
}

// GetOverview handles GET /overview/:principal. Wallet balance stays
// zero here; the wallet endpoint reports balances per BTC address.
func (h *Handler) GetOverview(c *gin.Context) {
	principal, ok := h.pathPrincipal(c)
	if !ok {
		return
	}

	agents, err := h.chain.GetAgentsByOwner(c.Request.Context(), principal)
	if err != nil {
		h.chainError(c, "overview", err)
		return
	}

	var overview Overview
	overview.AgentCount = len(agents)
	for _, agent := range agents {
		raw, _ := agent["status"].(string)
		canonical, err := status.Normalize(raw)
		if err != nil {
			// Unknown statuses count toward the total only.
			continue
		}
		switch canonical {
		case status.Online:
			overview.ActiveAgents++
		case status.Idle:
			overview.IdleAgents++
		case status.Stopped:
			overview.StoppedAgents++
		}
	}

	c.JSON(http.StatusOK, overview)
}

// GetLiveConsole handles GET /live-console/:id. When the store has no
// entries yet the most recent on-chain log fills the console so a
// fresh agent is not a blank screen.
func (h *Handler) GetLiveConsole(c *gin.Context) {
	agentID, ok := h.pathAgentID(c)
	if !ok {
		return
	}
	limit, ok := h.queryLimit(c, defaultConsoleLimit, maxConsoleLimit)
	if !ok {
		return
	}

	entries, err := h.logs.RecentN(c.Request.Context(), agentID, limit)
	if err != nil {
		h.storeError(c, "live console", err)
		return
	}

	if len(entries) > 0 {
		c.JSON(http.StatusOK, gin.H{"logs": entries})
		return
	}

	chainLog, err := h.chain.GetMostRecentLog(c.Request.Context(), agentID)
	if err != nil {
		h.chainError(c, "live console", err)
		return
	}

	logs := []map[string]any{}
	if chainLog != nil {
		logs = append(logs, chainLog)
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetPerformance handles GET /performance/:id?period=day|week|month.
func (h *Handler) GetPerformance(c *gin.Context) {
	agentID, ok := h.pathAgentID(c)
	if !ok {
		return
	}

	period := c.DefaultQuery("period", "day")
	var periodDays int64
	switch period {
	case "day":
		periodDays = 1
	case "week":
		periodDays = 7
	case "month":
		periodDays = 30
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_period",
			"message": "period must be one of day, week, month",
		})
		return
	}

	metrics, err := h.chain.GetAgentPerformance(c.Request.Context(), agentID, periodDays)
	if err != nil {
		h.chainError(c, "performance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// GetWallet handles GET /wallet/:address.
func (h *Handler) GetWallet(c *gin.Context) {
	address := c.Param("address")

	info, err := h.wallet.GetAddressInfo(c.Request.Context(), address)
	if err != nil {
		h.walletError(c, "address info", err)
		return
	}
	txs, err := h.wallet.GetAddressTransactions(c.Request.Context(), address, walletTxLimit)
	if err != nil {
		h.walletError(c, "address transactions", err)
		return
	}
	price, err := h.wallet.GetPrice(c.Request.Context())
	if err != nil {
		h.walletError(c, "price", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       address,
		"balance_sats":  info.BalanceSats(),
		"balance_btc":   btc.FormatBTCAmount(btc.SatsToBTC(info.BalanceSats())),
		"transactions":  txs,
		"btc_price_usd": price,
	})
}

// GetNotifications handles GET /notifications/:principal?limit=N.
func (h *Handler) GetNotifications(c *gin.Context) {
	principal, ok := h.pathPrincipal(c)
	if !ok {
		return
	}
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxNotificationLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be between 1 and 50",
			})
			return
		}
		limit = n
	}

	items, err := h.notifications.List(c.Request.Context(), principal, limit)
	if err != nil {
		h.storeError(c, "notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationRead handles POST /notifications/:principal/:notificationID/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	principal, ok := h.pathPrincipal(c)
	if !ok {
		return
	}
	notificationID := c.Param("notificationID")

	err := h.notifications.MarkRead(c.Request.Context(), principal, notificationID)
	if errors.Is(err, notify.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "notification_not_found",
			"message": "no such notification for this user",
		})
		return
	}
	if err != nil {
		h.storeError(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) pathPrincipal(c *gin.Context) (string, bool) {
	principal := c.Param("principal")
	if !validation.IsValidPrincipal(principal) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_principal",
			"message": "principal is not a valid Stacks address",
		})
		return "", false
	}
	return principal, true
}

func (h *Handler) pathAgentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_agent_id",
			"message": "agent id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) queryLimit(c *gin.Context, def, max int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_limit",
			"message": "limit must be between 1 and " + strconv.Itoa(max),
		})
		return 0, false
	}
	return n, true
}

func (h *Handler) storeError(c *gin.Context, op string, err error) {
	h.logger.Error("dashboard store error", "op", op, "error", err)
	if errors.Is(err, logstore.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "store_unavailable",
			"message": "storage backend is unavailable",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dashboard_error",
		"message": "failed to read dashboard data",
	})
}

func (h *Handler) chainError(c *gin.Context, op string, err error) {
	h.logger.Error("dashboard chain error", "op", op, "error", err)
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "chain_error",
			"message": "chain API request failed",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dashboard_error",
		"message": "failed to read dashboard data",
	})
}

func (h *Handler) walletError(c *gin.Context, op string, err error) {
	h.logger.Error("dashboard wallet error", "op", op, "error", err)
	var apiErr *btc.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_address",
			"message": "explorer rejected the address",
		})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{
		"error":   "wallet_unavailable",
		"message": "wallet data is temporarily unavailable",
	})
}
