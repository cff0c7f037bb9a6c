package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andywolf/msccrafter/internal/cloud/gcp"
)

// ExchangeTokenTTL bounds the window between the OAuth callback and the
// frontend collecting its token pair. The exchange happens immediately after
// the redirect, so the window is short.
const ExchangeTokenTTL = 2 * time.Minute

// DefaultAuthorizeURL is GitHub's authorization endpoint.
const DefaultAuthorizeURL = "https://github.com/login/oauth/authorize"

// Config identifies the OAuth app and the frontend the relay serves.
type Config struct {
	// ClientID is the OAuth app's public client ID.
	ClientID string
	// AuthorizeURL overrides the authorization endpoint for testing.
	AuthorizeURL string
	// RedirectURL is this relay's callback URL as registered with the app.
	RedirectURL string
	// FrontendURL is where the callback sends the browser back to.
	FrontendURL string
	// Scopes are the OAuth scopes requested, space-joined in the
	// authorize URL. Empty means public read access only.
	Scopes []string
}

// pendingAuth parks an authorization code between callback and exchange.
type pendingAuth struct {
	code      string
	expiresAt time.Time
}

// Server is the OAuth relay. It brokers the authorization-code flow so the
// client secret never reaches the browser: the frontend only ever sees the
// one-time exchange token and the resulting token pair.
type Server struct {
	cfg       Config
	exchanger *TokenExchanger
	signer    *StateSigner
	logger    gcp.Logger
	nowFunc   func() time.Time

	mu      sync.Mutex
	pending map[string]pendingAuth
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = fn
	}
}

// NewServer creates a relay Server.
func NewServer(cfg Config, exchanger *TokenExchanger, signer *StateSigner, logger gcp.Logger, opts ...ServerOption) *Server {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}

	s := &Server{
		cfg:       cfg,
		exchanger: exchanger,
		signer:    signer,
		logger:    logger,
		nowFunc:   time.Now,
		pending:   make(map[string]pendingAuth),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the relay's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.handleAuth)
	mux.HandleFunc("/auth/callback", s.handleCallback)
	mux.HandleFunc("/auth/exchange", s.handleExchange)
	mux.HandleFunc("/auth/refresh", s.handleRefresh)
	return s.withCORS(mux)
}

// handleAuth returns the GitHub authorize URL carrying a fresh signed state.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := uuid.NewString()

	state, err := s.signer.Issue()
	if err != nil {
		s.logger.Error("failed to issue state token", map[string]interface{}{"request_id": requestID, "error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "failed to start authorization")
		return
	}

	q := url.Values{
		"client_id":    {s.cfg.ClientID},
		"redirect_uri": {s.cfg.RedirectURL},
		"state":        {state},
	}
	if len(s.cfg.Scopes) > 0 {
		q.Set("scope", strings.Join(s.cfg.Scopes, " "))
	}

	s.logger.Info("authorization started", map[string]interface{}{"request_id": requestID})
	s.writeJSON(w, http.StatusOK, map[string]string{"url": s.cfg.AuthorizeURL + "?" + q.Encode()})
}

// handleCallback validates the returning state, parks the authorization code
// under a one-time exchange token and sends the browser back to the frontend.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := uuid.NewString()

	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		s.writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}
	if err := s.signer.Verify(state); err != nil {
		s.logger.Error("state verification failed", map[string]interface{}{"request_id": requestID, "error": err.Error()})
		s.writeError(w, http.StatusBadRequest, "invalid state")
		return
	}

	exchangeToken := uuid.NewString()
	s.park(exchangeToken, code)

	s.logger.Info("authorization callback accepted", map[string]interface{}{"request_id": requestID})
	http.Redirect(w, r, s.frontendRedirect(exchangeToken), http.StatusFound)
}

// handleExchange consumes a one-time exchange token and trades its parked
// code for a token pair.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := uuid.NewString()

	var req struct {
		AuthState string `json:"authState"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AuthState == "" {
		s.writeError(w, http.StatusBadRequest, "missing authState")
		return
	}

	code, ok := s.consume(req.AuthState)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown or expired authState")
		return
	}

	token, err := s.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		s.logger.Error("code exchange failed", map[string]interface{}{"request_id": requestID, "error": gcp.SanitizeForLog(err.Error())})
		s.writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	s.logger.Info("code exchanged", map[string]interface{}{"request_id": requestID})
	s.writeJSON(w, http.StatusOK, token)
}

// handleRefresh trades a refresh token for a fresh pair.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := uuid.NewString()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		s.writeError(w, http.StatusBadRequest, "missing refreshToken")
		return
	}

	token, err := s.exchanger.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed", map[string]interface{}{"request_id": requestID, "error": gcp.SanitizeForLog(err.Error())})
		s.writeError(w, http.StatusBadGateway, "token refresh failed")
		return
	}

	s.logger.Info("token refreshed", map[string]interface{}{"request_id": requestID})
	s.writeJSON(w, http.StatusOK, token)
}

// park stores a code under a fresh exchange token and drops expired entries.
func (s *Server) park(token, code string) {
	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()
	for t, p := range s.pending {
		if now.After(p.expiresAt) {
			delete(s.pending, t)
		}
	}
	s.pending[token] = pendingAuth{code: code, expiresAt: now.Add(ExchangeTokenTTL)}
}

// consume removes and returns the code parked under the token. Each token
// works exactly once.
func (s *Server) consume(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[token]
	if !ok {
		return "", false
	}
	delete(s.pending, token)

	if s.nowFunc().After(p.expiresAt) {
		return "", false
	}
	return p.code, true
}

func (s *Server) frontendRedirect(exchangeToken string) string {
	sep := "?"
	if strings.Contains(s.cfg.FrontendURL, "?") {
		sep = "&"
	}
	return s.cfg.FrontendURL + sep + "authState=" + url.QueryEscape(exchangeToken)
}

// withCORS answers preflight requests and marks responses for the frontend
// origin. The relay serves a single known SPA, not arbitrary origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	origin := "*"
	if u, err := url.Parse(s.cfg.FrontendURL); err == nil && u.Scheme != "" && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Run serves the relay on addr until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("relay shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	}
}
