package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthToken is an access/refresh token pair with absolute expiries in epoch
// milliseconds, the shape the frontend persists.
type OAuthToken struct {
	AccessToken           string `json:"access_token"`
	ExpiresAt             int64  `json:"expires_at,omitempty"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at,omitempty"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope"`
}

// TokenExchanger trades authorization codes and refresh tokens for OAuth
// token pairs at GitHub's token endpoint.
type TokenExchanger struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	nowFunc      func() time.Time
}

// TokenExchangerOption configures a TokenExchanger.
type TokenExchangerOption func(*TokenExchanger)

// WithHTTPClient sets a custom HTTP client for the TokenExchanger.
func WithHTTPClient(client *http.Client) TokenExchangerOption {
	return func(t *TokenExchanger) {
		t.httpClient = client
	}
}

// WithBaseURL sets a custom base URL for GitHub's OAuth endpoints (useful for
// testing).
func WithBaseURL(url string) TokenExchangerOption {
	return func(t *TokenExchanger) {
		t.baseURL = url
	}
}

// WithNowFunc sets a custom time function for testing expiry conversion.
func WithNowFunc(fn func() time.Time) TokenExchangerOption {
	return func(t *TokenExchanger) {
		t.nowFunc = fn
	}
}

// NewTokenExchanger creates a TokenExchanger for the given OAuth app.
func NewTokenExchanger(clientID, clientSecret string, opts ...TokenExchangerOption) *TokenExchanger {
	t := &TokenExchanger{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      "https://github.com/login/oauth",
		clientID:     clientID,
		clientSecret: clientSecret,
		nowFunc:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ExchangeCode trades an authorization code for a token pair.
func (t *TokenExchanger) ExchangeCode(ctx context.Context, code string) (*OAuthToken, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}
	return t.request(ctx, url.Values{"code": {code}})
}

// RefreshToken trades a refresh token for a fresh token pair.
func (t *TokenExchanger) RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token cannot be empty")
	}
	return t.request(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// tokenResponse is GitHub's token endpoint payload. Expiries arrive as
// relative seconds; GitHub reports flow errors in-band with status 200.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope"`
	Error                 string `json:"error"`
	ErrorDescription      string `json:"error_description"`
}

func (t *TokenExchanger) request(ctx context.Context, form url.Values) (*OAuthToken, error) {
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("token endpoint error: %s (%s)", tr.Error, tr.ErrorDescription)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	nowMilli := t.nowFunc().UnixMilli()
	token := &OAuthToken{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
	}
	// Classic OAuth apps issue non-expiring tokens with no expires_in; only
	// convert to an absolute deadline when one was given.
	if tr.ExpiresIn > 0 {
		token.ExpiresAt = nowMilli + tr.ExpiresIn*1000
	}
	if tr.RefreshTokenExpiresIn > 0 {
		token.RefreshTokenExpiresAt = nowMilli + tr.RefreshTokenExpiresIn*1000
	}
	return token, nil
}
