package auth

import (
	"testing"
	"time"

	"food-delivery-platform/apperr"
	"food-delivery-platform/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T, now time.Time) (*Tokens, *time.Time) {
	t.Helper()
	tokens, err := NewTokens("test-secret")
	require.NoError(t, err)
	clock := now
	tokens.Now = func() time.Time { return clock }
	return tokens, &clock
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens("")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens, clock := newTestTokens(t, start)

	payloads := []Payload{
		{UserID: 1, TenantID: 1, Role: models.RoleAdmin, Email: "admin@example.com"},
		{UserID: 42, TenantID: 7, Role: models.RoleCustomer, Email: "c@example.com"},
		{UserID: 9, TenantID: 3, Role: models.RoleAffiliate, Email: "aff@example.com"},
	}
	for _, p := range payloads {
		*clock = start
		token, err := tokens.GenerateToken(p)
		require.NoError(t, err)

		got, err := tokens.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, p, *got)

		*clock = start.Add(SessionTTL - time.Minute)
		got, err = tokens.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, p, *got)

		*clock = start.Add(SessionTTL + time.Second)
		got, err = tokens.VerifyToken(token)
		assert.Error(t, err)
		assert.Nil(t, got)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	tokens, _ := newTestTokens(t, time.Now())
	token, err := tokens.GenerateToken(Payload{UserID: 1, TenantID: 1, Role: models.RoleOwner, Email: "o@example.com"})
	require.NoError(t, err)

	other, err := NewTokens("another-secret")
	require.NoError(t, err)
	got, err := other.VerifyToken(token)
	assert.Error(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"", "garbage", token + "x", token[:len(token)-4]} {
		got, err := tokens.VerifyToken(bad)
		assert.Error(t, err, bad)
		assert.Nil(t, got)
	}
}

func TestVerifyTokenRejectsOtherAlgorithms(t *testing.T) {
	tokens, _ := newTestTokens(t, time.Now())
	claims := sessionClaims{
		Payload:          Payload{UserID: 1, TenantID: 1, Role: models.RoleAdmin, Email: "a@example.com"},
		Type:             typeSession,
		RegisteredClaims: tokens.registered(SessionTTL, 1),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	got, err := tokens.VerifyToken(unsigned)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestPasswordResetToken(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens, clock := newTestTokens(t, start)

	reset, err := tokens.GeneratePasswordResetToken(5, "u@example.com", "fp")
	require.NoError(t, err)

	got, err := tokens.VerifyPasswordResetToken(reset)
	require.NoError(t, err)
	assert.Equal(t, ResetPayload{UserID: 5, Email: "u@example.com", Fingerprint: "fp"}, *got)

	t.Run("cannot be used as a session token", func(t *testing.T) {
		p, err := tokens.VerifyToken(reset)
		assert.ErrorIs(t, err, ErrTokenType)
		assert.Nil(t, p)
	})

	t.Run("session token is not a reset token", func(t *testing.T) {
		session, err := tokens.GenerateToken(Payload{UserID: 5, TenantID: 1, Role: models.RoleOwner, Email: "u@example.com"})
		require.NoError(t, err)
		p, err := tokens.VerifyPasswordResetToken(session)
		assert.ErrorIs(t, err, ErrTokenType)
		assert.Nil(t, p)
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		raw, err := tokens.sign(resetClaims{
			ResetPayload:     ResetPayload{UserID: 5, Email: "u@example.com"},
			RegisteredClaims: tokens.registered(PasswordResetTTL, 5),
		})
		require.NoError(t, err)
		p, err := tokens.VerifyPasswordResetToken(raw)
		assert.ErrorIs(t, err, ErrTokenType)
		assert.Nil(t, p)
	})

	t.Run("expires after fifteen minutes", func(t *testing.T) {
		*clock = start.Add(PasswordResetTTL + time.Second)
		p, err := tokens.VerifyPasswordResetToken(reset)
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}
