// Package btc reads wallet data from an esplora-compatible Bitcoin API
// and spot prices from a public price feed.
package btc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bitgenius/backend/internal/retry"
	"github.com/bitgenius/backend/internal/traces"
)

const (
	// DefaultBaseURL is the public esplora instance used when no
	// explorer is configured.
	DefaultBaseURL = "https://blockstream.info/api"

	// DefaultPriceURL serves the BTC/USD spot price.
	DefaultPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"

	maxResponseBytes = 4 << 20

	readRetryAttempts = 3
	readRetryBase     = 200 * time.Millisecond
)

// APIError reports a non-2xx explorer response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("btc: api error %d: %s", e.Code, e.Message)
}

// ChainStats is the confirmed-chain portion of an address summary.
type ChainStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int64 `json:"tx_count"`
}

// AddressInfo summarizes an address as reported by the explorer.
type AddressInfo struct {
	Address      string     `json:"address"`
	ChainStats   ChainStats `json:"chain_stats"`
	MempoolStats ChainStats `json:"mempool_stats"`
}

// BalanceSats is the confirmed balance: funded minus spent outputs.
func (a AddressInfo) BalanceSats() int64 {
	return a.ChainStats.FundedTxoSum - a.ChainStats.SpentTxoSum
}

// Config holds explorer client settings.
type Config struct {
	BaseURL  string
	PriceURL string
	Timeout  time.Duration
}

// Client is an HTTP client for the explorer and price feed.
type Client struct {
	baseURL  string
	priceURL string
	http     *http.Client
}

// New creates an explorer client. Zero-value config fields fall back to
// the public endpoints and a 15s timeout.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PriceURL == "" {
		cfg.PriceURL = DefaultPriceURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		priceURL: cfg.PriceURL,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// get fetches a URL with retries; explorer reads are idempotent.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := retry.Do(ctx, readRetryAttempts, readRetryBase, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{Code: resp.StatusCode, Message: string(body)}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Permanent(apiErr)
			}
			return apiErr
		}
		data = body
		return nil
	})
	return data, err
}

// GetAddressInfo fetches the summary for one address.
func (c *Client) GetAddressInfo(ctx context.Context, address string) (AddressInfo, error) {
	ctx, span := traces.StartSpan(ctx, "btc.GetAddressInfo",
		traces.BTCAddress(address))
	defer span.End()

	data, err := c.get(ctx, c.baseURL+"/address/"+address)
	if err != nil {
		return AddressInfo{}, err
	}
	var info AddressInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return AddressInfo{}, fmt.Errorf("btc: malformed address info: %w", err)
	}
	return info, nil
}

// GetAddressTransactions fetches the most recent transactions for an
// address, truncated to limit. Transaction bodies pass through opaque;
// the dashboard renders them as is.
func (c *Client) GetAddressTransactions(ctx context.Context, address string, limit int) ([]json.RawMessage, error) {
	data, err := c.get(ctx, c.baseURL+"/address/"+address+"/txs")
	if err != nil {
		return nil, err
	}
	var txs []json.RawMessage
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("btc: malformed transaction list: %w", err)
	}
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// GetTransaction fetches one transaction by id.
func (c *Client) GetTransaction(ctx context.Context, txID string) (json.RawMessage, error) {
	data, err := c.get(ctx, c.baseURL+"/tx/"+txID)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// GetPrice fetches the BTC/USD spot price.
func (c *Client) GetPrice(ctx context.Context) (float64, error) {
	data, err := c.get(ctx, c.priceURL)
	if err != nil {
		return 0, err
	}
	var body struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return 0, fmt.Errorf("btc: malformed price response: %w", err)
	}
	return body.Bitcoin.USD, nil
}
