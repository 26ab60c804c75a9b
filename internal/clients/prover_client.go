package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProofRequest is the payload the external proof-generation backend needs
// to build an inclusion proof: the transaction, its Merkle evidence and the
// transfer amounts. The backend is a black box with non-deterministic
// latency and deterministic correctness.
type ProofRequest struct {
	TxHash       string   `json:"tx_hash"`
	MerkleRoot   string   `json:"merkle_root"`
	SiblingPath  []string `json:"sibling_path"`
	LeafIndex    uint32   `json:"leaf_index"`
	SourceAmount int64    `json:"source_amount"`
}

// ProofResponse carries the opaque proof blob and its public signals.
type ProofResponse struct {
	RequestID     string   `json:"request_id"`
	Success       bool     `json:"success"`
	ProofData     string   `json:"proof_data"`
	PublicSignals []string `json:"public_signals"`
	ErrorMessage  *string  `json:"error_message"`
}

// ProverClient talks to the proof-generation backend over HTTP.
type ProverClient struct {
	BaseURL string
	Client  *http.Client
}

// NewProverClient creates a proof-generation backend client. Proof
// generation is slow; the default timeout allows for it.
func NewProverClient(baseURL string, timeout time.Duration) *ProverClient {
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	return &ProverClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// GenerateProof requests an inclusion proof from the backend. A response
// with Success=false is converted into an error so callers handle exactly
// one failure path.
func (c *ProverClient) GenerateProof(ctx context.Context, proofReq *ProofRequest) (*ProofResponse, error) {
	jsonData, err := json.Marshal(proofReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/proof/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proof backend returned error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ProofResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success {
		msg := "unknown error"
		if result.ErrorMessage != nil {
			msg = *result.ErrorMessage
		}
		return nil, fmt.Errorf("proof backend rejected request: %s", msg)
	}
	return &result, nil
}
