package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims of a session token. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Phone string `json:"phone,omitempty"`
}

// UserID parses the numeric user id from the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return id, nil
}

// ErrTokenRevoked is returned by Parse for tokens revoked through logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
	revoked    *Revocations
}

func NewTokenManager(signingKey []byte, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		signingKey: signingKey,
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
		revoked:    NewRevocations(),
	}
}

// Revocations exposes the revocation list so the caller can run its sweeper.
func (m *TokenManager) Revocations() *Revocations {
	return m.revoked
}

// Revoke invalidates the token described by claims until it expires.
func (m *TokenManager) Revoke(claims *Claims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	m.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
}

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID int64, phone string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Phone: phone,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, expiry and issuer and returns the claims.
func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if m.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
