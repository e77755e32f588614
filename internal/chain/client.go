// Package chain implements the HTTP transport for the contract gateway.
//
// The gateway executes read-only contract calls synchronously and builds
// unsigned transaction payloads for write calls; signing and broadcast
// happen client-side. This package owns request shaping, auth, and error
// surfacing; it never falls back to defaults on failure.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitgenius/backend/internal/chaincall"
	"github.com/bitgenius/backend/internal/metrics"
	"github.com/bitgenius/backend/internal/retry"
)

const (
	readOnlyPath = "/stacks/v1/read-only-call"
	txBuildPath  = "/stacks/v1/transactions/build"

	// Read-only calls are idempotent, so the transport retries them.
	// Write-path calls are never retried here; that policy belongs to the
	// caller.
	readRetryAttempts = 3
	readRetryBase     = 200 * time.Millisecond
)

// RPCError is a gateway-level failure, preserved verbatim for operators.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("chain: gateway error %d: %s", e.Code, e.Message)
}

// Config configures the gateway client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the contract gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a gateway client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// callResult is the gateway's read-only call response envelope.
type callResult struct {
	Okay  bool             `json:"okay"`
	Value *chaincall.Value `json:"value"`
	Cause string           `json:"cause,omitempty"`
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chain: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chain: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RPCError{Code: 0, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &RPCError{Code: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		rpcErr := &RPCError{Code: resp.StatusCode, Message: string(data)}
		// 4xx means the request itself is wrong; retrying cannot help.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(rpcErr)
		}
		return nil, rpcErr
	}

	return data, nil
}

// Call executes a read-only contract call and returns the typed result.
func (c *Client) Call(ctx context.Context, desc *chaincall.CallDescriptor) (*chaincall.Value, error) {
	timer := prometheus.NewTimer(metrics.ChainCallDuration.WithLabelValues(desc.Function))
	defer timer.ObserveDuration()

	var data []byte
	err := retry.Do(ctx, readRetryAttempts, readRetryBase, func() error {
		var postErr error
		data, postErr = c.post(ctx, readOnlyPath, desc)
		return postErr
	})
	metrics.ObserveChainCall(desc.Function, err)
	if err != nil {
		return nil, err
	}

	var result callResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &RPCError{Code: http.StatusOK, Message: "malformed gateway response: " + err.Error()}
	}
	if !result.Okay && result.Cause != "" {
		return nil, &RPCError{Code: http.StatusOK, Message: result.Cause}
	}
	return result.Value, nil
}

// BuildTransaction asks the gateway to build an unsigned transaction for a
// write call. The opaque payload is returned to the caller for client-side
// signing; it is not retried (the builder endpoint allocates nonces).
func (c *Client) BuildTransaction(ctx context.Context, desc *chaincall.CallDescriptor) (json.RawMessage, error) {
	data, err := c.post(ctx, txBuildPath, desc)
	metrics.ObserveChainCall(desc.Function, err)
	if err != nil {
		var pe *retry.PermanentError
		if errors.As(err, &pe) {
			return nil, pe.Err
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}
