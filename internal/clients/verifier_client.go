package clients

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifierClient is the HTTP implementation of the proof-verification
// predicate consumed by the proof registry. The cryptographic check lives
// entirely in the external service; this client only transports it.
type VerifierClient struct {
	BaseURL string
	Client  *http.Client
}

// NewVerifierClient creates a proof-verification client.
func NewVerifierClient(baseURL string, timeout time.Duration) *VerifierClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VerifierClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	CircuitID    string   `json:"circuit_id"`
	ProofHex     string   `json:"proof_hex"`
	PublicInputs []string `json:"public_inputs"`
}

type verifyResponse struct {
	Valid        bool    `json:"valid"`
	ErrorMessage *string `json:"error_message"`
}

// Verify implements registry.Verifier.
func (c *VerifierClient) Verify(ctx context.Context, circuitID string, proofBytes []byte, publicInputs []string) (bool, error) {
	jsonData, err := json.Marshal(verifyRequest{
		CircuitID:    circuitID,
		ProofHex:     hex.EncodeToString(proofBytes),
		PublicInputs: publicInputs,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/proof/verify", bytes.NewBuffer(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verifier returned error (status %d): %s", resp.StatusCode, string(body))
	}

	var result verifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Valid, nil
}
