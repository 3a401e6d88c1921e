// Package session supplies the signed-in account that owns the family data.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession    = errors.New("not signed in")
	ErrInvalidToken = errors.New("invalid session token")
)

// Account is the authenticated owner of a family
type Account struct {
	ID    string
	Email string
	Name  string
}

// Provider bootstraps the current account and signs it out
type Provider interface {
	Current(ctx context.Context) (*Account, error)
	SignOut(ctx context.Context) error
}

type accountClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TokenProvider reads the account from an HS256 session token
type TokenProvider struct {
	secret []byte
	now    func() time.Time

	mu    sync.Mutex
	token string
}

// NewTokenProvider verifies token with secret. An empty token means signed out.
func NewTokenProvider(secret, token string) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), token: token, now: time.Now}
}

// Current returns the account named by the token's subject
func (p *TokenProvider) Current(_ context.Context) (*Account, error) {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()

	if token == "" {
		return nil, ErrNoSession
	}
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("%w: no session secret configured", ErrInvalidToken)
	}

	claims := &accountClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(p.now))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Account{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// SignOut forgets the token for the rest of the process
func (p *TokenProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	return nil
}

// IssueToken signs a session token for account. A zero ttl never expires.
func IssueToken(secret string, account Account, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is required")
	}
	if account.ID == "" {
		return "", errors.New("account id is required")
	}

	claims := accountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  account.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Email: account.Email,
		Name:  account.Name,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
