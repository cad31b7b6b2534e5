// Package pocketbot provides the Go client SDK for a pocketbot assistant
// server.
//
// The package covers the persistent chat connection and the synchronous
// HTTP API:
//
//	client := pocketbot.NewClient("http://localhost:8080", token)
//	info, _ := client.Status(ctx)
//
//	chat := pocketbot.NewChatClient(nil)
//	chat.Connect(pocketbot.ServerConnection{Address: "http://localhost:8080", Token: token},
//		pocketbot.Callbacks{
//			OnMessage: func(m pocketbot.ChatMessage) { fmt.Println(m.Content) },
//		})
//	chat.SendMessage("hello")
package pocketbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	ProbeTimeout   = 5 * time.Second
)

// ============================================================================
// Client
// ============================================================================

// Client is the synchronous HTTP client for the pocketbot web API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a client for the server at address. token may be ""
// when the server runs with auth disabled.
func NewClient(address, token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: strings.TrimRight(address, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after RotateToken.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ============================================================================
// Internal request helper
// ============================================================================

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// newAPIError maps a non-success status to *APIError, preferring the
// server's detail message when the body carries one.
func newAPIError(status int, body []byte) *APIError {
	msg := http.StatusText(status)
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		msg = detail.Detail
	}
	return &APIError{Status: status, Message: msg}
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ============================================================================
// Status & Config
// ============================================================================

// Status fetches the running server's status summary.
func (c *Client) Status(ctx context.Context) (*StatusInfo, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[StatusInfo](data)
}

// GetConfig fetches the agent configuration.
func (c *Client) GetConfig(ctx context.Context) (*AgentConfig, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/config", nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[AgentConfig](data)
}

// UpdateConfig applies the non-nil fields of update. The server validates
// each field individually; rejected fields come back in the result's Errors
// map rather than failing the call.
func (c *Client) UpdateConfig(ctx context.Context, update ConfigUpdate) (*ConfigUpdateResult, error) {
	data, err := c.doRequest(ctx, http.MethodPut, "/api/config", update.payload())
	if err != nil {
		return nil, err
	}
	return decodeJSON[ConfigUpdateResult](data)
}

// RotateToken asks the server to mint a new access token, invalidating the
// current one. The caller is responsible for persisting it and calling
// SetToken.
func (c *Client) RotateToken(ctx context.Context) (string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/auth/rotate", nil)
	if err != nil {
		return "", err
	}
	res, err := decodeJSON[struct {
		Token string `json:"token"`
	}](data)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// ============================================================================
// Health
// ============================================================================

// Ping performs one health-check round trip.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/ping", nil)
	return err
}

// Probe reports whether the server answers its health check within
// ProbeTimeout: true on a success response, false on any error, non-success
// status, or timeout. Stateless; it never touches the chat connection.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	return c.Ping(ctx) == nil
}
