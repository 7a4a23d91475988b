// Package workday serves Workday HCM data and HR documents as MCP tools,
// prompt templates, and resources.
package workday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultAPIURL = "https://api.us.wcp.workday.com/common/v1/workers"

var ErrMissingToken = errors.New("missing API token, set WORKDAY_API_TOKEN")

// Client reads worker data from the Workday REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client. baseURL defaults to DefaultAPIURL and
// httpClient to one with a 30s timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// Workers lists workers.
func (c *Client) Workers(ctx context.Context, params url.Values) (any, error) {
	return c.get(ctx, c.baseURL, params)
}

// Worker fetches one worker by ID.
func (c *Client) Worker(ctx context.Context, workerID string, params url.Values) (any, error) {
	return c.get(ctx, c.baseURL+"/"+url.PathEscape(workerID), params)
}

// get performs an authorized GET. Upstream failures are not Go errors: they
// come back as {"error": ..., "status_code": N} documents so the model can
// read them. Only a missing token is an error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errorDocument(fmt.Sprintf("Unexpected error: %v", err), http.StatusInternalServerError), nil
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorDocument(fmt.Sprintf("Request failed: %v", err), http.StatusInternalServerError), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorDocument(fmt.Sprintf("Request failed: %v", err), http.StatusInternalServerError), nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := fmt.Sprintf("Workday API error: %s", resp.Status)
		if len(body) > 0 {
			msg += ", Response: " + string(body)
		}
		return errorDocument(msg, resp.StatusCode), nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return errorDocument("Response is not valid JSON", http.StatusInternalServerError), nil
	}

	return doc, nil
}

func errorDocument(msg string, status int) map[string]any {
	return map[string]any{"error": msg, "status_code": status}
}

// errorMessage returns the error text of an error document, if doc is one.
func errorMessage(doc any) (string, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := m["error"].(string)
	return msg, ok
}
