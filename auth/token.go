package auth

import (
	"errors"
	"fmt"
	"time"

	"food-delivery-platform/apperr"
	"food-delivery-platform/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTTL       = 7 * 24 * time.Hour
	PasswordResetTTL = 15 * time.Minute

	typeSession       = "session"
	typePasswordReset = "password_reset"
)

var (
	ErrTokenType   = errors.New("token type mismatch")
	ErrTokenClaims = errors.New("token claims incomplete")
)

// Payload is the verified identity carried by a session token
type Payload struct {
	UserID   uint            `json:"user_id"`
	TenantID uint            `json:"tenant_id"`
	Role     models.UserRole `json:"role"`
	Email    string          `json:"email"`
}

// ResetPayload is carried by a password reset token
type ResetPayload struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	Fingerprint string `json:"fp"`
}

type sessionClaims struct {
	Payload
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type resetClaims struct {
	ResetPayload
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens with a process-wide secret.
type Tokens struct {
	secret []byte
	// Now is the clock used for issuing and validating; tests override it.
	Now func() time.Time
}

// NewTokens refuses to build a signer without a secret.
func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, apperr.Configuration("JWT secret is not configured")
	}
	return &Tokens{secret: []byte(secret), Now: time.Now}, nil
}

func (t *Tokens) registered(ttl time.Duration, subject uint) jwt.RegisteredClaims {
	now := t.Now()
	return jwt.RegisteredClaims{
		Subject:   fmt.Sprint(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *Tokens) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) parse(tokenStr string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.Now),
		jwt.WithExpirationRequired(),
	)
	return err
}

// GenerateToken issues a session token valid for SessionTTL
func (t *Tokens) GenerateToken(p Payload) (string, error) {
	return t.sign(sessionClaims{
		Payload:          p,
		Type:             typeSession,
		RegisteredClaims: t.registered(SessionTTL, p.UserID),
	})
}

// VerifyToken returns the payload of a valid session token. Any failure,
// whatever the cause, yields a nil payload; the error is only for logging.
func (t *Tokens) VerifyToken(tokenStr string) (*Payload, error) {
	claims := &sessionClaims{}
	if err := t.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Type != typeSession {
		return nil, ErrTokenType
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, ErrTokenClaims
	}
	p := claims.Payload
	return &p, nil
}

// GeneratePasswordResetToken issues a reset token valid for PasswordResetTTL
func (t *Tokens) GeneratePasswordResetToken(userID uint, email, fingerprint string) (string, error) {
	return t.sign(resetClaims{
		ResetPayload:     ResetPayload{UserID: userID, Email: email, Fingerprint: fingerprint},
		Type:             typePasswordReset,
		RegisteredClaims: t.registered(PasswordResetTTL, userID),
	})
}

// VerifyPasswordResetToken accepts only tokens carrying the password_reset type.
func (t *Tokens) VerifyPasswordResetToken(tokenStr string) (*ResetPayload, error) {
	claims := &resetClaims{}
	if err := t.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Type != typePasswordReset {
		return nil, ErrTokenType
	}
	if claims.UserID == 0 || claims.Email == "" {
		return nil, ErrTokenClaims
	}
	p := claims.ResetPayload
	return &p, nil
}
