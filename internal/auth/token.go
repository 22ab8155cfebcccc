// Package auth issues and verifies the HS256 bearer tokens that identify the
// acting user, and hashes account passwords. Tokens carry only identity;
// role and office are always reloaded from storage before authorization.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// ErrInvalidToken is returned for missing, malformed, tampered or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload.
type Claims struct {
	jwt.StandardClaims
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenManager signs and verifies tokens with a shared secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string

	// now is a test seam.
	now func() time.Time
}

// NewTokenManager returns a manager for secret. ttl <= 0 means one hour.
func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue returns a signed token for u and its expiry.
func (m *TokenManager) Issue(u *domain.User) (string, time.Time, error) {
	if u == nil || u.ID == "" {
		return "", time.Time{}, errors.New("auth: cannot issue a token without a user id")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    m.issuer,
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses raw and returns its claims. Any failure is ErrInvalidToken.
func (m *TokenManager) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
