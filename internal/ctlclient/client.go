// Package ctlclient is an HTTP client for konditionald's operator
// surface, used by cmd/konditionalctl. It knows nothing about the
// core's evaluation semantics; it only shuttles the same JSON shapes
// internal/httpapi accepts and returns.
package ctlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin HTTP client over konditionald's REST surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("ctlclient: parse URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("ctlclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ctlclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ctlclient: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ctlclient: %s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// GetSnapshot fetches the current snapshot in codec wire format.
func (c *Client) GetSnapshot(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/snapshot", nil)
}

// LoadSnapshot publishes a whole snapshot in codec wire format.
func (c *Client) LoadSnapshot(ctx context.Context, payload []byte) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/snapshots", payload)
	return err
}

// Rollback steps the namespace back by n published snapshots.
func (c *Client) Rollback(ctx context.Context, steps int) error {
	body, _ := json.Marshal(map[string]int{"steps": steps})
	_, err := c.do(ctx, http.MethodPost, "/v1/snapshots/rollback", body)
	return err
}

// KillAll disables every feature in the namespace.
func (c *Client) KillAll(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/kill-all", nil)
	return err
}

// SetOverride forces featureKey to evaluate to value, bypassing rules.
func (c *Client) SetOverride(ctx context.Context, featureKey, valueType string, value any) error {
	body, err := json.Marshal(map[string]any{"featureKey": featureKey, "type": valueType, "value": value})
	if err != nil {
		return fmt.Errorf("ctlclient: marshal override: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/v1/overrides", body)
	return err
}

// ClearOverride removes a previously set override.
func (c *Client) ClearOverride(ctx context.Context, featureKey string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/overrides/"+url.PathEscape(featureKey), nil)
	return err
}
