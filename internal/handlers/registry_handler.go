package handlers

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/registry"
)

// RegistryHandler exposes proof submission, verification and the admin
// circuit management endpoints.
type RegistryHandler struct {
	registry *registry.Registry
}

func NewRegistryHandler(reg *registry.Registry) *RegistryHandler {
	return &RegistryHandler{registry: reg}
}

// SubmitProofRequest is the body of POST /api/registry/proofs.
type SubmitProofRequest struct {
	CircuitID     string   `json:"circuit_id" binding:"required"`
	ProofHex      string   `json:"proof_hex" binding:"required"`
	PublicInputs  []string `json:"public_inputs"`
	SubjectTxHash string   `json:"subject_tx_hash" binding:"required"`
}

// SubmitProof handles POST /api/registry/proofs.
func (h *RegistryHandler) SubmitProof(c *gin.Context) {
	var req SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	proofBytes, err := hex.DecodeString(strings.TrimPrefix(req.ProofHex, "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "proof_hex is not valid hex"})
		return
	}

	proofHash, err := h.registry.SubmitProof(req.CircuitID, proofBytes, req.PublicInputs, req.SubjectTxHash)
	if err != nil {
		c.JSON(registryErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "proof_hash": proofHash.Hex()})
}

// GetProof handles GET /api/registry/proofs/:hash.
func (h *RegistryHandler) GetProof(c *gin.Context) {
	proofHash, err := merkle.ParseHash(c.Param("hash"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid proof hash"})
		return
	}

	record, ok := h.registry.Record(proofHash)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "proof record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": record})
}

// VerifyProof handles POST /api/registry/proofs/:hash/verify.
func (h *RegistryHandler) VerifyProof(c *gin.Context) {
	proofHash, err := merkle.ParseHash(c.Param("hash"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid proof hash"})
		return
	}

	valid, err := h.registry.VerifyProof(c.Request.Context(), proofHash)
	if err != nil {
		c.JSON(registryErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": valid})
}

// BatchVerifyRequest is the body of POST /api/registry/proofs/verify-batch.
type BatchVerifyRequest struct {
	ProofHashes []string `json:"proof_hashes" binding:"required"`
}

// BatchVerify handles POST /api/registry/proofs/verify-batch. The batch is
// atomic: one ineligible proof rejects the whole request and no record is
// mutated.
func (h *RegistryHandler) BatchVerify(c *gin.Context) {
	var req BatchVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	hashes := make([]merkle.Hash32, len(req.ProofHashes))
	for i, raw := range req.ProofHashes {
		parsed, err := merkle.ParseHash(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid proof hash at position " + strconv.Itoa(i)})
			return
		}
		hashes[i] = parsed
	}

	results, err := h.registry.BatchVerifyProofs(c.Request.Context(), hashes)
	if err != nil {
		c.JSON(registryErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// GetStats handles GET /api/registry/stats.
func (h *RegistryHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": h.registry.Stats()})
}

// RegisterCircuit handles POST /api/admin/registry/circuits (admin role).
func (h *RegistryHandler) RegisterCircuit(c *gin.Context) {
	var cfg registry.CircuitConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := h.registry.RegisterCircuit(cfg); err != nil {
		c.JSON(registryErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "circuit": cfg})
}

// SetCircuitActiveRequest is the body of the circuit activation endpoint.
type SetCircuitActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetCircuitActive handles PATCH /api/admin/registry/circuits/:id (admin
// role).
func (h *RegistryHandler) SetCircuitActive(c *gin.Context) {
	var req SetCircuitActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := h.registry.SetCircuitActive(c.Param("id"), *req.Active); err != nil {
		c.JSON(registryErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetCircuit handles GET /api/registry/circuits/:id.
func (h *RegistryHandler) GetCircuit(c *gin.Context) {
	cfg, ok := h.registry.Circuit(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "circuit not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "circuit": cfg})
}

func registryErrorStatus(err error) int {
	switch {
	case errors.Is(err, registry.ErrProofNotFound),
		errors.Is(err, registry.ErrCircuitNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateProof),
		errors.Is(err, registry.ErrDuplicateCircuit),
		errors.Is(err, registry.ErrAlreadyVerified),
		errors.Is(err, registry.ErrCooldownActive):
		return http.StatusConflict
	case errors.Is(err, registry.ErrCircuitInactive),
		errors.Is(err, registry.ErrProofSizeMismatch),
		errors.Is(err, registry.ErrTooManyInputs),
		errors.Is(err, registry.ErrVerificationExpired),
		errors.Is(err, registry.ErrBatchTooLarge),
		errors.Is(err, registry.ErrEmptyBatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
