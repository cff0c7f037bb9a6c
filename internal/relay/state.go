// Package relay implements the OAuth relay: the small HTTP service that keeps
// the GitHub client secret off the browser by brokering the authorization-code
// flow on the frontend's behalf.
package relay

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// StateTokenTTL bounds how long an authorization round-trip may take. GitHub
// redirects back within seconds; ten minutes leaves room for a slow login.
const StateTokenTTL = 10 * time.Minute

// StateSigner issues and verifies the signed state parameter carried through
// the OAuth redirect. A valid signature proves the flow started at this relay.
type StateSigner struct {
	secret  []byte
	nowFunc func() time.Time
}

// NewStateSigner creates a StateSigner over the given HMAC secret.
func NewStateSigner(secret []byte) (*StateSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("state secret cannot be empty")
	}
	return &StateSigner{
		secret:  secret,
		nowFunc: time.Now,
	}, nil
}

// Issue creates a fresh signed state token with a unique ID and a
// StateTokenTTL expiry.
func (s *StateSigner) Issue() (string, error) {
	now := s.nowFunc()

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    "msccrafter-relay",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(StateTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a state token returned by the
// OAuth callback.
func (s *StateSigner) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid state token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid state token")
	}
	return nil
}
