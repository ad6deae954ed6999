// Package auth issues and validates the bearer tokens that guard write endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in tokens.
const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
)

// Claims identifies the caller. Subject is a free-form operator name.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 tokens.
type TokenService struct {
	secret      []byte
	expireHours int
}

// NewTokenService creates a token service.
func NewTokenService(secret string, expireHours int) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	return role == RoleEditor || role == RoleAdmin
}

// Generate creates a token for subject with the given role.
func (s *TokenService) Generate(subject, role string) (string, error) {
	if !ValidRole(role) {
		return "", ErrInvalidRole
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
