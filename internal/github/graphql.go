// Package github provides the GitHub GraphQL transport and raw document
// fetching used to resolve proposals.
package github

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

// DefaultEndpoint is the GitHub GraphQL API endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// Client issues authenticated GraphQL queries against the GitHub API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithEndpoint sets a custom GraphQL endpoint (useful for testing).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// NewClient creates a GraphQL client authenticated with the given bearer
// token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   DefaultEndpoint,
		token:      token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// graphqlRequest is the JSON body of a GraphQL POST.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlError is a single error entry in a GraphQL response.
type graphqlError struct {
	Message string `json:"message"`
}

// Query executes the given query with variables and unmarshals the response
// data into out. Network errors, non-2xx statuses and GraphQL-level errors
// all surface as a single error; out is untouched on failure.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query returned status %d: %s", resp.StatusCode, excerpt(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return fmt.Errorf("query failed: %s", strings.Join(messages, "; "))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// excerpt shortens an error body for inclusion in an error message.
func excerpt(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
