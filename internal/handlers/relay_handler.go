package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/relay"
)

// RelayHandler exposes the header relay's read surface, the relayer-only
// append endpoint and the admin emergency controls.
type RelayHandler struct {
	admin    relay.AdminCap
	relayer  relay.RelayerCap
	operator relay.OperatorCap
}

func NewRelayHandler(admin relay.AdminCap, relayer relay.RelayerCap, operator relay.OperatorCap) *RelayHandler {
	return &RelayHandler{admin: admin, relayer: relayer, operator: operator}
}

// AppendHeaderRequest is the body of POST /api/relay/headers.
type AppendHeaderRequest struct {
	Hash           string `json:"hash" binding:"required"`
	PrevHash       string `json:"prev_hash" binding:"required"`
	Timestamp      int64  `json:"timestamp" binding:"required"`
	DifficultyBits uint32 `json:"difficulty_bits"`
}

// AppendHeader handles POST /api/relay/headers (relayer role).
func (h *RelayHandler) AppendHeader(c *gin.Context) {
	var req AppendHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	hash, err := merkle.ParseHash(req.Hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "hash: " + err.Error()})
		return
	}
	prevHash, err := merkle.ParseHash(req.PrevHash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "prev_hash: " + err.Error()})
		return
	}

	header, err := h.relayer.AppendHeader(hash, prevHash, req.Timestamp, req.DifficultyBits)
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "header": header})
}

// GetTip handles GET /api/relay/tip.
func (h *RelayHandler) GetTip(c *gin.Context) {
	tip, err := h.operator.Tip()
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "header": tip})
}

// GetHeader handles GET /api/relay/headers/:height.
func (h *RelayHandler) GetHeader(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid height"})
		return
	}

	header, err := h.operator.HeaderByHeight(height)
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "header": header})
}

// GetConfirmations handles GET /api/relay/headers/:height/confirmations.
func (h *RelayHandler) GetConfirmations(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid height"})
		return
	}

	confirmations, err := h.operator.Confirmations(height)
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "height": height, "confirmations": confirmations})
}

// GetStatus handles GET /api/relay/status.
func (h *RelayHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": h.admin.Paused()})
}

// Pause handles POST /api/admin/relay/pause (admin role).
func (h *RelayHandler) Pause(c *gin.Context) {
	if err := h.admin.Pause(); err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": true})
}

// Resume handles POST /api/admin/relay/resume (admin role).
func (h *RelayHandler) Resume(c *gin.Context) {
	if err := h.admin.Resume(); err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paused": false})
}

func relayErrorStatus(err error) int {
	switch {
	case errors.Is(err, relay.ErrEmergencyPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, relay.ErrDuplicateHeader),
		errors.Is(err, relay.ErrCooldownActive),
		errors.Is(err, relay.ErrNotPaused):
		return http.StatusConflict
	case errors.Is(err, relay.ErrUnknownHeight):
		return http.StatusNotFound
	case errors.Is(err, relay.ErrZeroHash),
		errors.Is(err, relay.ErrUnknownParent),
		errors.Is(err, relay.ErrStaleParent),
		errors.Is(err, relay.ErrFutureTimestamp):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
