// Package client is a thin convenience wrapper around the sentinel HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sova-network/sova-sentinel/api"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx reply from the sentinel.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sentinel replied %d: %s", e.Code, e.Message)
}

// Opts configures a Client.
type Opts struct {
	// BaseURL is the sentinel endpoint, e.g. "http://localhost:50051".
	BaseURL string
	// Timeout bounds every request. Zero applies a 30s default.
	Timeout time.Duration
	// HTTPClient overrides the underlying client, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to a running sentinel instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the given endpoint.
func NewClient(opts Opts) (*Client, error) {
	if _, err := url.Parse(opts.BaseURL); err != nil || len(opts.BaseURL) <= 0 {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func (c *Client) LockSlot(
	ctx context.Context, req api.LockSlotRequest,
) (*api.LockSlotResponse, error) {
	out := &api.LockSlotResponse{}
	if err := c.post(ctx, "/v1/slot/lock", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSlotStatus(
	ctx context.Context, req api.GetSlotStatusRequest,
) (*api.GetSlotStatusResponse, error) {
	out := &api.GetSlotStatusResponse{}
	if err := c.post(ctx, "/v1/slot/status", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BatchLockSlot(
	ctx context.Context, req api.BatchLockSlotRequest,
) (*api.BatchLockSlotResponse, error) {
	out := &api.BatchLockSlotResponse{}
	if err := c.post(ctx, "/v1/slots/lock", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BatchGetSlotStatus(
	ctx context.Context, req api.BatchGetSlotStatusRequest,
) (*api.BatchGetSlotStatusResponse, error) {
	out := &api.BatchGetSlotStatusResponse{}
	if err := c.post(ctx, "/v1/slots/status", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// BatchUnlockSlot invokes the development-only forced unlock. The server
// rejects it with 403 unless explicitly enabled.
func (c *Client) BatchUnlockSlot(
	ctx context.Context, req api.BatchUnlockSlotRequest,
) (*api.BatchUnlockSlotResponse, error) {
	out := &api.BatchUnlockSlotResponse{}
	if err := c.post(ctx, "/v1/slots/unlock", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks the /healthz endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/healthz", nil,
	)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return &APIError{Code: res.StatusCode, Message: "unhealthy"}
	}
	return nil
}

func (c *Client) post(
	ctx context.Context, path string, in, out interface{},
) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		apiErr := api.ErrorResponse{}
		raw, _ := io.ReadAll(res.Body)
		if err := json.Unmarshal(raw, &apiErr); err != nil || len(apiErr.Error) <= 0 {
			apiErr.Error = string(raw)
		}
		return &APIError{Code: res.StatusCode, Message: apiErr.Error}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
