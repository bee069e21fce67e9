package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradechat/internal/chat"
	"tradechat/internal/logger"
	"tradechat/internal/provider"
	"tradechat/internal/store"
	"tradechat/internal/summary"
	"tradechat/internal/types"
)

type handlers struct {
	hub       *Hub
	summaries *summary.Generator
	store     store.Store
}

type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	conv := h.hub.Conversation(req.UserID)
	result, err := conv.Submit(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		h.renderTurnError(c, err)
		return
	}
	resp := gin.H{"message": result.Reply, "usage": result.Usage}
	if result.SwitchedTo != "" {
		resp["switched_to"] = result.SwitchedTo
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) chatState(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	c.JSON(http.StatusOK, h.hub.Conversation(userID).Snapshot())
}

func (h *handlers) chatReset(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if err := h.hub.Conversation(req.UserID).Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is in flight", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *handlers) summarize(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SessionID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and session_id are required"})
		return
	}
	result, err := h.summaries.Generate(c.Request.Context(), req.SessionID, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.renderTurnError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": result.Summary, "usage": result.Usage})
}

func (h *handlers) listSessions(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	sessions, err := h.store.ListSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing sessions failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *handlers) createSession(c *gin.Context) {
	var req struct {
		UserID         string          `json:"user_id"`
		Name           string          `json:"name"`
		InitialCapital decimal.Decimal `json:"initial_capital"`
		CurrentCapital decimal.Decimal `json:"current_capital"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	session := types.TradingSession{
		UserID:         req.UserID,
		Name:           req.Name,
		InitialCapital: req.InitialCapital,
		CurrentCapital: req.CurrentCapital,
	}
	if err := h.store.CreateSession(c.Request.Context(), &session); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "creating session failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *handlers) listTrades(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	trades, err := h.store.ListTrades(c.Request.Context(), userID, strings.TrimSpace(c.Query("session_id")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing trades failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (h *handlers) createTrade(c *gin.Context) {
	var req struct {
		UserID     string          `json:"user_id"`
		SessionID  string          `json:"session_id"`
		Side       string          `json:"side"`
		Margin     decimal.Decimal `json:"margin"`
		ROI        decimal.Decimal `json:"roi"`
		ProfitLoss decimal.Decimal `json:"profit_loss"`
		Comment    string          `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	trade := types.Trade{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Side:       types.ParseSide(req.Side),
		Margin:     req.Margin,
		ROI:        req.ROI,
		ProfitLoss: req.ProfitLoss,
		Comment:    req.Comment,
	}
	if err := h.store.CreateTrade(c.Request.Context(), &trade); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "creating trade failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade": trade})
}

// renderTurnError maps turn failures onto status codes. The credential error
// stays generic on purpose: the missing variable's name is an operator
// concern, not something for end users.
func (h *handlers) renderTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
	case errors.Is(err, chat.ErrTurnInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in flight"})
	case errors.Is(err, chat.ErrFocusSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, chat.ErrInvalidOwnership):
		logger.Errorf("ownership violation in context build: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": "request aborted"})
	case errors.Is(err, provider.ErrMissingCredential):
		logger.Errorf("completion call rejected: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant unavailable", "details": "backend not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant unavailable", "details": err.Error()})
	}
}
