package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/repository"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/services"
)

// BridgeHandler exposes the transfer lifecycle API.
type BridgeHandler struct {
	orchestrator *services.BridgeOrchestrator
	txRepo       repository.BridgeTransactionRepository
}

func NewBridgeHandler(orchestrator *services.BridgeOrchestrator, txRepo repository.BridgeTransactionRepository) *BridgeHandler {
	return &BridgeHandler{orchestrator: orchestrator, txRepo: txRepo}
}

// InitiateTransfer handles POST /api/bridge/transfers.
func (h *BridgeHandler) InitiateTransfer(c *gin.Context) {
	var req services.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	tx, err := h.orchestrator.InitiateTransfer(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "transaction": tx})
}

// GetTransfer handles GET /api/bridge/transfers/:id.
func (h *BridgeHandler) GetTransfer(c *gin.Context) {
	tx, err := h.orchestrator.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": tx})
}

// GetTransferEvents handles GET /api/bridge/transfers/:id/events.
func (h *BridgeHandler) GetTransferEvents(c *gin.Context) {
	events, err := h.orchestrator.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// CancelTransfer handles POST /api/bridge/transfers/:id/cancel.
func (h *BridgeHandler) CancelTransfer(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	// The body is optional; cancellation without a reason is allowed.
	_ = c.ShouldBindJSON(&req)

	err := h.orchestrator.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrTransactionTerminal) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "transaction is already terminal"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTransfers handles GET /api/bridge/transfers with page/page_size
// query parameters.
func (h *BridgeHandler) ListTransfers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	txs, total, err := h.txRepo.List(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": txs,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}
