package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capstone-nft/models"
	"capstone-nft/repositories"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "capstone-nft"
	tokenAudience = "capstone-nft-users"
)

// ErrTokenRevoked is returned for tokens invalidated by logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// CustomClaims represents the claims carried by access tokens.
type CustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// TokenManager issues, validates and revokes access tokens.
type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
	revoked    repositories.TokenRepository
	now        func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, revoked repositories.TokenRepository) *TokenManager {
	return &TokenManager{
		signingKey: []byte(secret),
		ttl:        ttl,
		revoked:    revoked,
		now:        time.Now,
	}
}

// GenerateToken signs a token for user.
func (m *TokenManager) GenerateToken(user *models.User) (string, error) {
	now := m.now()
	claims := &CustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.Username,
			Audience:  []string{tokenAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ParseAndValidateToken checks the signature, time window, audience and
// revocation state of tokenString.
func (m *TokenManager) ParseAndValidateToken(ctx context.Context, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.VerifyAudience(tokenAudience, true) || !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, errors.New("invalid token audience or issuer")
	}

	if claims.ID != "" && m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke invalidates the token described by claims until it expires.
func (m *TokenManager) Revoke(ctx context.Context, claims *CustomClaims) error {
	if claims.ID == "" {
		return errors.New("token has no id")
	}
	expiresAt := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return m.revoked.Revoke(ctx, claims.ID, claims.UserID, expiresAt)
}
