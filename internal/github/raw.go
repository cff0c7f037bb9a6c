package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRawBaseURL is the unauthenticated raw content host.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// RawFetcher fetches raw file content from a repository branch. Raw content
// is served unauthenticated, so this client carries no token.
type RawFetcher struct {
	httpClient *http.Client
	baseURL    string
}

// RawFetcherOption configures a RawFetcher.
type RawFetcherOption func(*RawFetcher)

// WithRawHTTPClient sets a custom HTTP client.
func WithRawHTTPClient(client *http.Client) RawFetcherOption {
	return func(f *RawFetcher) {
		f.httpClient = client
	}
}

// WithRawBaseURL sets a custom content host (useful for testing).
func WithRawBaseURL(url string) RawFetcherOption {
	return func(f *RawFetcher) {
		f.baseURL = url
	}
}

// NewRawFetcher creates a RawFetcher with the given options.
func NewRawFetcher(opts ...RawFetcherOption) *RawFetcher {
	f := &RawFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultRawBaseURL,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves the content of filePath on the given branch of repoPath
// (e.g. "owner/repo"). Any non-2xx status is a fetch failure.
func (f *RawFetcher) Fetch(ctx context.Context, repoPath, branch, filePath string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", f.baseURL, repoPath, branch, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch of %s returned status %d", url, resp.StatusCode)
	}

	return string(body), nil
}
