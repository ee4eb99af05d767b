package services

import (
	"context"

	"capstone-nft/apperrors"
	"capstone-nft/auth"
	"capstone-nft/repositories"

	"go.uber.org/zap"
)

// AuthService handles login and logout on top of the credential resolver.
type AuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, claims *auth.CustomClaims) error
}

type LoginResult struct {
	Token string       `json:"token"`
	User  BriefProfile `json:"user"`
}

type authService struct {
	resolver *auth.Resolver
	tokens   *auth.TokenManager
	users    repositories.UserRepository
	logger   *zap.Logger
}

var _ AuthService = (*authService)(nil)

func NewAuthService(resolver *auth.Resolver, tokens *auth.TokenManager, users repositories.UserRepository, logger *zap.Logger) AuthService {
	return &authService{resolver: resolver, tokens: tokens, users: users, logger: logger.Named("auth")}
}

func (s *authService) Login(ctx context.Context, req auth.LoginRequest) (*LoginResult, error) {
	user, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternal("Could not generate token", err)
	}
	counts, err := s.users.FollowCounts(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternal("Database error counting follows", err)
	}
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{
		Token: token,
		User:  mapUserToBrief(user, counts[user.ID]),
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.CustomClaims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return apperrors.NewInternal("Failed to revoke token", err)
	}
	s.logger.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}
