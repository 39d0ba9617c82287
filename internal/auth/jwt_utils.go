package auth

import (
	"errors"
	"time"

	"smokedash/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines what is inside the session token
type Claims struct {
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the session grants the page.
func (c *Claims) CanAccess(page string) bool {
	for _, p := range c.Permissions {
		if p == page {
			return true
		}
	}
	return false
}

// TokenIssuer signs and checks session tokens for logged-in cashiers.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer fails on an empty secret; a token signed with "" proves nothing.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken creates a signed token for a user
func (i *TokenIssuer) GenerateToken(user models.User) (string, error) {
	now := i.now()
	claims := &Claims{
		Username:    user.Username,
		Role:        user.Role,
		Permissions: user.EffectivePermissions(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

// ValidateToken checks if a token is forged or expired
func (i *TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
