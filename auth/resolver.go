package auth

import (
	"context"
	"errors"
	"strings"

	"capstone-nft/apperrors"
	"capstone-nft/config"
	"capstone-nft/models"
	"capstone-nft/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Unable to log in with provided credentials."
	msgAccountDisabled    = "User account is disabled."
	msgEmailNotVerified   = "E-mail is not verified."
)

// Policy holds the account settings consulted while resolving credentials
// and registering users.
type Policy struct {
	EmailVerification string
	UniqueEmail       bool
	PasswordMinLength int
}

func PolicyFromConfig(cfg config.AuthConfig) Policy {
	return Policy{
		EmailVerification: cfg.EmailVerification,
		UniqueEmail:       cfg.UniqueEmail,
		PasswordMinLength: cfg.PasswordMinLength,
	}
}

// VerificationMandatory reports whether login requires a verified email.
func (p Policy) VerificationMandatory() bool {
	return p.EmailVerification == config.EmailVerificationMandatory
}

// LoginRequest carries a password and at least one identifying field.
type LoginRequest struct {
	Email    string `json:"email" description:"Email address, matched case-insensitively"`
	Phone    string `json:"phone" description:"Phone number"`
	NickName string `json:"nick_name" description:"Nickname"`
	Username string `json:"username" description:"Canonical username"`
	Password string `json:"password" description:"Password"`
}

// Resolver maps a login request to a single authenticated user.
type Resolver struct {
	users  repositories.UserRepository
	emails repositories.EmailRepository
	policy Policy
	logger *zap.Logger
}

func NewResolver(users repositories.UserRepository, emails repositories.EmailRepository, policy Policy, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, emails: emails, policy: policy, logger: logger.Named("resolver")}
}

// Resolve authenticates req. The identifying fields are tried in the fixed
// order email, phone, nick_name, username; the first one present decides the
// account even if another field would match a different one.
func (r *Resolver) Resolve(ctx context.Context, req LoginRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	nickName := strings.TrimSpace(req.NickName)
	username := strings.TrimSpace(req.Username)

	if req.Password == "" {
		return nil, requiredFieldError("password")
	}

	var (
		lookup func() (*models.User, error)
		via    string
	)
	switch {
	case email != "":
		lookup, via = func() (*models.User, error) { return r.users.FindByEmail(ctx, email) }, "email"
	case phone != "":
		lookup, via = func() (*models.User, error) { return r.users.FindByPhone(ctx, phone) }, "phone"
	case nickName != "":
		lookup, via = func() (*models.User, error) { return r.users.FindByNickName(ctx, nickName) }, "nick_name"
	case username != "":
		lookup, via = nil, "username"
	default:
		return nil, apperrors.NewAuthentication(`Must include "email", "phone" or "nick_name" and "password".`)
	}

	canonical := username
	if lookup != nil {
		found, err := lookup()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewAuthentication(msgInvalidCredentials)
			}
			return nil, apperrors.NewInternal("failed to look up user", err)
		}
		canonical = found.Username
	}

	user, err := r.users.FindByUsername(ctx, canonical)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewAuthentication(msgInvalidCredentials)
		}
		return nil, apperrors.NewInternal("failed to look up user", err)
	}
	if !CheckPassword(user.Password, req.Password) {
		r.logger.Debug("password mismatch", zap.String("via", via), zap.Uint("user_id", user.ID))
		return nil, apperrors.NewAuthentication(msgInvalidCredentials)
	}

	// Accounts waiting for email confirmation are inactive too; report the
	// more specific reason for them.
	if r.policy.VerificationMandatory() {
		verified, err := r.emails.IsVerified(ctx, user.ID, user.EmailValue())
		if err != nil {
			return nil, apperrors.NewInternal("failed to check email verification", err)
		}
		if !verified {
			return nil, apperrors.NewVerification(msgEmailNotVerified)
		}
	}
	if !user.IsActive {
		return nil, apperrors.NewAuthentication(msgAccountDisabled)
	}
	return user, nil
}

func requiredFieldError(field string) *apperrors.Error {
	return apperrors.NewFieldValidation(map[string][]string{field: {"This field is required."}})
}
