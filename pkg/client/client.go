package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-tree-go/pkg/instruction"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/program"
	"github.com/Layr-Labs/merkle-tree-go/pkg/types"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialBackoff:  100 * time.Millisecond,
	MaxBackoff:      5 * time.Second,
	BackoffMultiple: 2.0,
}

const defaultTimeout = 30 * time.Second

// ClientConfig holds the configuration for the merkle client
type ClientConfig struct {
	BaseURL    string
	Logger     *zap.Logger
	HTTPClient *http.Client // optional
	Retry      *RetryConfig // optional, DefaultRetryConfig when nil
}

// Client talks to a merkle server
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
	retryConfig RetryConfig
}

// APIError is a non 2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("server returned %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new client instance
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	retry := DefaultRetryConfig
	if config.Retry != nil {
		retry = *config.Retry
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		httpClient:  httpClient,
		logger:      config.Logger,
		retryConfig: retry,
	}, nil
}

// SendInstruction posts raw instruction bytes. payer and tree may be nil for
// instructions that read no account.
func (c *Client) SendInstruction(ctx context.Context, payer, tree *common.Address, data []byte) (*program.Result, error) {
	req := &types.InstructionRequest{Payer: payer, Tree: tree, Data: data}
	var result program.Result
	if err := c.do(ctx, http.MethodPost, "/v1/instructions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Initialize creates the tree owned by payer, deriving its address through the server
func (c *Client) Initialize(ctx context.Context, payer common.Address) (*program.Result, error) {
	addr, err := c.DeriveAddress(ctx, payer)
	if err != nil {
		return nil, fmt.Errorf("failed to derive tree address: %w", err)
	}
	return c.SendInstruction(ctx, &payer, &addr.Tree, instruction.EncodeInitialize())
}

// InsertLeaf appends a leaf to tree
func (c *Client) InsertLeaf(ctx context.Context, payer, tree common.Address, leaf [32]byte) (*program.Result, error) {
	return c.SendInstruction(ctx, &payer, &tree, instruction.EncodeInsertLeaf(leaf))
}

// ComputeRoot folds leaf with siblings on the server
func (c *Client) ComputeRoot(ctx context.Context, leaf [32]byte, siblings [][32]byte) (common.Hash, error) {
	data, err := instruction.EncodeComputeRoot(leaf, siblings)
	if err != nil {
		return common.Hash{}, err
	}
	result, err := c.SendInstruction(ctx, nil, nil, data)
	if err != nil {
		return common.Hash{}, err
	}
	if result.ComputedRoot == nil {
		return common.Hash{}, fmt.Errorf("server response is missing the computed root")
	}
	return *result.ComputedRoot, nil
}

// VerifyRoot checks a proof for leaf slot index against root on the server.
// A proof that does not reproduce root returns merkle.ErrRootMismatch.
func (c *Client) VerifyRoot(ctx context.Context, leaf [32]byte, index uint8, siblings [][32]byte, root [32]byte) error {
	data, err := instruction.EncodeVerifyRoot(leaf, index, siblings, root)
	if err != nil {
		return err
	}
	_, err = c.SendInstruction(ctx, nil, nil, data)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: %s", merkle.ErrRootMismatch, apiErr.Message)
	}
	return err
}

// GetTree fetches the state of one tree
func (c *Client) GetTree(ctx context.Context, tree common.Address) (*program.TreeState, error) {
	var state program.TreeState
	if err := c.do(ctx, http.MethodGet, "/v1/trees/"+tree.Hex(), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ListTrees fetches every stored tree
func (c *Client) ListTrees(ctx context.Context) ([]*program.TreeState, error) {
	var trees []*program.TreeState
	if err := c.do(ctx, http.MethodGet, "/v1/trees", nil, &trees); err != nil {
		return nil, err
	}
	return trees, nil
}

// GetProof fetches the authentication path of a populated leaf slot
func (c *Client) GetProof(ctx context.Context, tree common.Address, index int) (*types.ProofResponse, error) {
	var proof types.ProofResponse
	path := fmt.Sprintf("/v1/trees/%s/proof/%d", tree.Hex(), index)
	if err := c.do(ctx, http.MethodGet, path, nil, &proof); err != nil {
		return nil, err
	}
	return &proof, nil
}

// DeriveAddress asks the server for the tree address owned by payer
func (c *Client) DeriveAddress(ctx context.Context, payer common.Address) (*types.AddressResponse, error) {
	var resp types.AddressResponse
	if err := c.do(ctx, http.MethodGet, "/v1/address?payer="+payer.Hex(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fetches the server health
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var resp types.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// retryable reports whether a failed attempt may be repeated. Instructions
// are not idempotent, so POSTs are only retried when the rate limiter
// rejected them before they reached the program.
func retryable(method string, status int, transportErr error) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	return transportErr != nil || status >= http.StatusInternalServerError
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	backoff := c.retryConfig.InitialBackoff
	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		status, err := c.once(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var transportErr error
		if status == 0 {
			transportErr = err
		}
		if !retryable(method, status, transportErr) || attempt == c.retryConfig.MaxAttempts-1 {
			break
		}

		c.logger.Sugar().Debugw("Retrying request",
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * c.retryConfig.BackoffMultiple)
		if backoff > c.retryConfig.MaxBackoff {
			backoff = c.retryConfig.MaxBackoff
		}
	}

	return lastErr
}

// once performs a single attempt. The returned status is zero when no response was received.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) (int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var errResp types.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.RequestID = errResp.RequestID
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
