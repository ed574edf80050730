// Package client is a Go client for the tinylink HTTP API.
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

	"github.com/sundayezeilo/tinylink/internal/httpx"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

// DefaultTimeout bounds every request made by a Client built without WithHTTPClient.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a tinylink server.
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a Client for the server at serverURL.
func New(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create shortens target. An empty code asks the server to generate one.
func (c *Client) Create(ctx context.Context, target, code string) (*shortener.LinkResponse, error) {
	body, err := json.Marshal(shortener.HTTPCreateLinkRequest{URL: target, Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var link shortener.LinkResponse
	if err := c.do(ctx, http.MethodPost, "/api/links", bytes.NewReader(body), http.StatusCreated, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Get returns a link and its click statistics.
func (c *Client) Get(ctx context.Context, code string) (*shortener.LinkResponse, error) {
	var link shortener.LinkResponse
	if err := c.do(ctx, http.MethodGet, "/api/links/"+url.PathEscape(code), nil, http.StatusOK, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// List returns every link, newest first.
func (c *Client) List(ctx context.Context) ([]shortener.LinkResponse, error) {
	var links []shortener.LinkResponse
	if err := c.do(ctx, http.MethodGet, "/api/links", nil, http.StatusOK, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// Delete removes a link.
func (c *Client) Delete(ctx context.Context, code string) error {
	var resp shortener.DeleteLinkResponse
	return c.do(ctx, http.MethodDelete, "/api/links/"+url.PathEscape(code), nil, http.StatusOK, &resp)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unexpected_status"}

	var envelope httpx.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err == nil && envelope.Error != "" {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
	}
	return apiErr
}
