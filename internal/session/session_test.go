package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestCurrentReadsAccount(t *testing.T) {
	token, err := IssueToken(secret, Account{ID: "acct-1", Email: "alex@example.com", Name: "Alex"}, time.Now(), time.Hour)
	require.NoError(t, err)

	account, err := NewTokenProvider(secret, token).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Account{ID: "acct-1", Email: "alex@example.com", Name: "Alex"}, account)
}

func TestCurrentRejectsBadTokens(t *testing.T) {
	issued := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	expired, err := IssueToken(secret, Account{ID: "acct-1"}, issued, time.Minute)
	require.NoError(t, err)
	otherKey, err := IssueToken("other-secret", Account{ID: "acct-1"}, time.Now(), 0)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte(secret))
	require.NoError(t, err)
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "acct-1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong key", token: otherKey},
		{name: "missing subject", token: noSubject},
		{name: "wrong algorithm", token: wrongAlg},
		{name: "garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenProvider(secret, tt.token).Current(context.Background())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSignOut(t *testing.T) {
	token, err := IssueToken(secret, Account{ID: "acct-1"}, time.Now(), 0)
	require.NoError(t, err)
	p := NewTokenProvider(secret, token)
	ctx := context.Background()

	_, err = p.Current(ctx)
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	_, err = p.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMissingSecret(t *testing.T) {
	_, err := IssueToken("", Account{ID: "acct-1"}, time.Now(), 0)
	assert.Error(t, err)

	_, err = NewTokenProvider("", "a.b.c").Current(context.Background())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
