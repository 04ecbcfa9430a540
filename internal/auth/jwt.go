package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OwnerClaims identifies a platform owner on the admin portal
type OwnerClaims struct {
	OwnerID string
	Email   string
}

// OwnerTokens signs and verifies bearer tokens for the owner portal.
// Tenant-side users authenticate with session cookies instead.
type OwnerTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewOwnerTokens creates a token signer with the given secret and TTL
func NewOwnerTokens(secret string, ttl time.Duration) *OwnerTokens {
	return &OwnerTokens{secret: []byte(secret), ttl: ttl}
}

// Sign issues an HS256 token for an owner account
func (t *OwnerTokens) Sign(ownerID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   ownerID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates a token and extracts the owner claims
func (t *OwnerTokens) Verify(tokenStr string) (OwnerClaims, error) {
	tok, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return OwnerClaims{}, ErrUnauthenticated
	}

	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return OwnerClaims{}, ErrUnauthenticated
	}
	sub, _ := mapc["sub"].(string)
	email, _ := mapc["email"].(string)
	if sub == "" {
		return OwnerClaims{}, ErrUnauthenticated
	}
	return OwnerClaims{OwnerID: sub, Email: email}, nil
}
