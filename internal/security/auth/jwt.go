package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthenticatedRole is the JWT role claim the auth backend issues to signed-in
// users. Anonymous API keys carry "anon" and are not sessions.
const AuthenticatedRole = "authenticated"

// AppMetadata is the server-controlled metadata embedded in access tokens
type AppMetadata struct {
	Provider string `json:"provider,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Claims are the access token claims issued by the auth backend
type Claims struct {
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *Claims) UserID() string {
	return c.Subject
}

// Authenticated reports whether the token belongs to a signed-in user
func (c *Claims) Authenticated() bool {
	return c.Role == AuthenticatedRole && c.Subject != ""
}

type TokenManager struct {
	secret   []byte
	audience string
}

// NewTokenManager validates HS256 tokens signed with the backend JWT secret
func NewTokenManager(secret, audience string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if audience == "" {
		audience = AuthenticatedRole
	}
	return &TokenManager{secret: []byte(secret), audience: audience}
}

// GenerateToken signs a token shaped like the backend's; used by tooling and tests
func (tm *TokenManager) GenerateToken(userID, email, appRole string, expiresIn time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id required")
	}
	now := time.Now()
	claims := Claims{
		Email:       email,
		Role:        AuthenticatedRole,
		AppMetadata: AppMetadata{Provider: "email", Role: appRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{tm.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithAudience(tm.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
