package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"capstone-nft/apperrors"
	"capstone-nft/auth"
	"capstone-nft/config"
	"capstone-nft/models"
	"capstone-nft/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgEmailTaken       = "A user is already registered with this e-mail address."
	msgPasswordMismatch = "The two password fields didn't match."
	msgNickNameTaken    = "A user with that nickname already exists."
)

// RegistrationService creates accounts and confirms their email addresses.
type RegistrationService interface {
	Register(ctx context.Context, input *RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, key string) error
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254" description:"Email address"`
	Password1 string `json:"password1" validate:"required" description:"Password"`
	Password2 string `json:"password2" validate:"required" description:"Password confirmation"`
	Phone     string `json:"phone" validate:"required,max=32" description:"Phone number"`
	Name      string `json:"name" validate:"required,max=100" description:"Display name"`
	NickName  string `json:"nick_name" validate:"required,max=100" description:"Unique nickname"`
}

// Mailer delivers email verification messages.
type Mailer interface {
	SendVerification(ctx context.Context, email, key string) error
}

type registrationService struct {
	users     repositories.UserRepository
	emails    repositories.EmailRepository
	mailer    Mailer
	policy    auth.Policy
	passwords auth.PasswordValidator
	validate  *validator.Validate
	logger    *zap.Logger
}

var _ RegistrationService = (*registrationService)(nil)

func NewRegistrationService(users repositories.UserRepository, emails repositories.EmailRepository, mailer Mailer, policy auth.Policy, logger *zap.Logger) RegistrationService {
	return &registrationService{
		users:     users,
		emails:    emails,
		mailer:    mailer,
		policy:    policy,
		passwords: auth.PasswordValidator{MinLength: policy.PasswordMinLength},
		validate:  newValidator(),
		logger:    logger.Named("registration"),
	}
}

func (s *registrationService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	in := normalizeRegisterInput(*input)

	// Field problems are collected and reported together; the password
	// confirmation is only compared once every field is valid.
	fields := validationFields(s.validate.Struct(&in))
	if fields == nil {
		fields = make(map[string][]string)
	}

	if s.policy.UniqueEmail && len(fields["email"]) == 0 {
		exists, err := s.users.EmailExists(ctx, in.Email)
		if err != nil {
			return nil, apperrors.NewInternal("Database error checking existing user", err)
		}
		if exists {
			fields["email"] = append(fields["email"], msgEmailTaken)
		}
	}

	if len(fields["nick_name"]) == 0 {
		if _, err := s.users.FindByNickName(ctx, in.NickName); err == nil {
			fields["nick_name"] = append(fields["nick_name"], msgNickNameTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInternal("Database error checking existing user", err)
		}
	}

	if len(fields["password1"]) == 0 {
		problems := s.passwords.Validate(in.Password1, auth.PasswordAttributes{
			Email:    in.Email,
			Name:     in.Name,
			NickName: in.NickName,
		})
		fields["password1"] = append(fields["password1"], problems...)
		if len(fields["password1"]) == 0 {
			delete(fields, "password1")
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidation(fields)
	}
	if in.Password1 != in.Password2 {
		return nil, apperrors.NewFieldValidation(map[string][]string{apperrors.NonFieldErrors: {msgPasswordMismatch}})
	}

	username, err := s.uniqueUsername(ctx, in.Email)
	if err != nil {
		return nil, apperrors.NewInternal("Could not derive username", err)
	}

	hashedPassword, err := auth.HashPassword(in.Password1)
	if err != nil {
		return nil, apperrors.NewInternal("Could not hash password", err)
	}

	email := in.Email
	nickName := in.NickName
	user := models.User{
		Username: username,
		Email:    &email,
		Phone:    in.Phone,
		Name:     in.Name,
		NickName: &nickName,
		Password: hashedPassword,
		IsActive: !s.policy.VerificationMandatory(),
	}
	now := time.Now()
	address := models.EmailAddress{
		Email:   email,
		Primary: true,
		Key:     uuid.NewString(),
		SentAt:  &now,
	}

	if err := s.users.CreateWithEmail(ctx, &user, &address); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("Email or nickname already exists")
		}
		return nil, apperrors.NewInternal("Failed to create user", err)
	}

	if s.policy.EmailVerification != config.EmailVerificationNone {
		// The account exists either way; a lost mail can be re-sent out of band.
		if err := s.mailer.SendVerification(ctx, email, address.Key); err != nil {
			s.logger.Warn("failed to send verification email", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return &user, nil
}

func (s *registrationService) VerifyEmail(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.NewFieldValidation(map[string][]string{"key": {"This field is required."}})
	}
	address, err := s.emails.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("Unknown verification key")
		}
		return apperrors.NewInternal("Database error retrieving email", err)
	}
	if address.Verified {
		return nil
	}
	if err := s.emails.Confirm(ctx, address); err != nil {
		return apperrors.NewInternal("Failed to confirm email", err)
	}
	s.logger.Info("email verified", zap.Uint("user_id", address.UserID))
	return nil
}

func normalizeRegisterInput(in RegisterInput) RegisterInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)
	in.NickName = strings.TrimSpace(in.NickName)
	return in
}

func (s *registrationService) uniqueUsername(ctx context.Context, email string) (string, error) {
	return models.DeriveUsername(email, func(candidate string) (bool, error) {
		return s.users.UsernameExists(ctx, candidate)
	})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationFields converts validator errors into field messages.
func validationFields(err error) map[string][]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{apperrors.NonFieldErrors: {err.Error()}}
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		default:
			msg = fmt.Sprintf("Invalid value (%s).", fe.Tag())
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}
	return fields
}
