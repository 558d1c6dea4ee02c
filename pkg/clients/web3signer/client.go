// Package web3signer implements a minimal client for Web3Signer-compatible
// remote signing services, covering the JSON-RPC methods the envelope signer
// needs (eth_accounts, eth_sign).
package web3signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridian-network/signer-go/pkg/config"
)

// Config holds the connection settings for a Web3Signer service.
type Config struct {
	BaseUrl string
	Timeout time.Duration

	// RequestsPerSecond caps the JSON-RPC request rate. Zero means
	// unlimited.
	RequestsPerSecond float64
}

func DefaultConfig() *Config {
	return &Config{
		BaseUrl: "http://localhost:9000",
		Timeout: 30 * time.Second,
	}
}

// ConfigFromRemoteSignerConfig adapts the shared remote-signer configuration.
func ConfigFromRemoteSignerConfig(rsc *config.RemoteSignerConfig) *Config {
	cfg := DefaultConfig()
	if rsc == nil {
		return cfg
	}
	if rsc.Url != "" {
		cfg.BaseUrl = rsc.Url
	}
	cfg.RequestsPerSecond = rsc.RequestsPerSecond
	return cfg
}

// Client talks JSON-RPC to a Web3Signer service.
type Client struct {
	baseUrl    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseUrl == "" {
		return nil, fmt.Errorf("web3signer base URL cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseUrl:    strings.TrimRight(cfg.BaseUrl, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// SetHttpClient allows setting a custom HTTP client, mainly for tests.
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// EthAccounts returns the accounts available for signing.
// Corresponds to the eth_accounts JSON-RPC method.
func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", []interface{}{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// EthSign signs data with the specified account and returns the hex-encoded
// signature. Corresponds to the eth_sign JSON-RPC method.
func (c *Client) EthSign(ctx context.Context, account string, data string) (string, error) {
	var signature string
	if err := c.call(ctx, "eth_sign", []interface{}{account, data}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

type jsonRpcRequest struct {
	JsonRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	Id      string        `json:"id"`
}

type jsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRpcError   `json:"error"`
	Id      string          `json:"id"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	reqId := uuid.New().String()
	body, err := json.Marshal(&jsonRpcRequest{
		JsonRpc: "2.0",
		Method:  method,
		Params:  params,
		Id:      reqId,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON-RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("web3signer request",
		zap.String("method", method),
		zap.String("requestId", reqId),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("web3signer request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read web3signer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("web3signer returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp jsonRpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal JSON-RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("web3signer error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON-RPC result: %w", err)
	}
	return nil
}
