package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(Config{Secret: "0123456789012345678901234567890123"})
	require.NoError(t, err)
	return s
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	_, err := NewService(Config{Secret: "too-short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestIssueTokenThenValidateRoundTrips(t *testing.T) {
	s := testService(t)
	token, expiresAt, err := s.IssueToken("alice", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.False(t, claims.ReadOnly)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := testService(t)
	_, err := s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSigningKey(t *testing.T) {
	s1 := testService(t)
	s2, err := NewService(Config{Secret: "9999999999999999999999999999999999"})
	require.NoError(t, err)

	token, _, err := s1.IssueToken("alice", true)
	require.NoError(t, err)

	_, err = s2.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
