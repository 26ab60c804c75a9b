package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTxNotFound marks a transaction the chain data source has never seen.
// The orchestrator treats it as structural, unlike transport errors which
// are retried.
var ErrTxNotFound = errors.New("chain: transaction not found")

// ChainTransaction is the chain data source's view of a source-chain
// transaction.
type ChainTransaction struct {
	TxHash      string        `json:"tx_hash"`
	Confirmed   bool          `json:"confirmed"`
	BlockHeight uint64        `json:"block_height"`
	BlockHash   string        `json:"block_hash"`
	Outputs     []ChainOutput `json:"outputs"`
}

// ChainOutput is one output of a source-chain transaction.
type ChainOutput struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// ChainClient talks to the external block/transaction lookup service over
// HTTP. The service is assumed to index the source chain; this client adds
// no caching of its own.
type ChainClient struct {
	BaseURL string
	Client  *http.Client
}

// NewChainClient creates a chain data source client.
func NewChainClient(baseURL string, timeout time.Duration) *ChainClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChainClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// GetTransaction fetches a transaction with its containing block reference.
func (c *ChainClient) GetTransaction(ctx context.Context, txHash string) (*ChainTransaction, error) {
	var result ChainTransaction
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/tx/%s", c.BaseURL, txHash), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBlockTransactionHashes fetches the ordered transaction hash list of a
// block, the leaf list for Merkle proof construction.
func (c *ChainClient) GetBlockTransactionHashes(ctx context.Context, blockHash string) ([]string, error) {
	var result struct {
		TxHashes []string `json:"tx_hashes"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/block/%s/txs", c.BaseURL, blockHash), &result); err != nil {
		return nil, err
	}
	return result.TxHashes, nil
}

// GetConfirmationDepth fetches the source-chain confirmation count of a
// transaction.
func (c *ChainClient) GetConfirmationDepth(ctx context.Context, txHash string) (int64, error) {
	var result struct {
		Confirmations int64 `json:"confirmations"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/tx/%s/confirmations", c.BaseURL, txHash), &result); err != nil {
		return 0, err
	}
	return result.Confirmations, nil
}

func (c *ChainClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrTxNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chain data source returned error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
