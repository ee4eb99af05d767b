package auth

import (
	"context"
	"testing"

	"capstone-nft/apperrors"
	"capstone-nft/config"
	"capstone-nft/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, policy Policy) (*Resolver, repositories.UserRepository) {
	t.Helper()
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	emails := repositories.NewEmailRepository(db)
	return NewResolver(users, emails, policy, testLogger()), users
}

var optionalPolicy = Policy{EmailVerification: config.EmailVerificationOptional, UniqueEmail: true, PasswordMinLength: 8}

func TestResolveByEachIdentifier(t *testing.T) {
	r, users := newTestResolver(t, optionalPolicy)
	kim := createTestUser(t, users, testUser{
		username: "kim", email: "kim@example.com", phone: "010-1111-2222",
		nickName: "minsu", password: "qwer!234asdf", active: true,
	})
	ctx := context.Background()

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"email", LoginRequest{Email: "kim@example.com", Password: "qwer!234asdf"}},
		{"email ignores case", LoginRequest{Email: "KIM@Example.COM", Password: "qwer!234asdf"}},
		{"phone", LoginRequest{Phone: "010-1111-2222", Password: "qwer!234asdf"}},
		{"nick_name", LoginRequest{NickName: "minsu", Password: "qwer!234asdf"}},
		{"username", LoginRequest{Username: "kim", Password: "qwer!234asdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := r.Resolve(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, kim.ID, user.ID)
		})
	}
}

func TestResolveEmailTakesPrecedence(t *testing.T) {
	r, users := newTestResolver(t, optionalPolicy)
	kim := createTestUser(t, users, testUser{
		username: "kim", email: "kim@example.com", phone: "010-1111-2222",
		nickName: "minsu", password: "qwer!234asdf", active: true,
	})
	createTestUser(t, users, testUser{
		username: "lee", email: "lee@example.com", phone: "010-3333-4444",
		nickName: "jieun", password: "zxcv!987lkjh", active: true,
	})
	ctx := context.Background()

	// The email decides the account; lee's nickname is not considered.
	user, err := r.Resolve(ctx, LoginRequest{Email: "kim@example.com", NickName: "jieun", Password: "qwer!234asdf"})
	require.NoError(t, err)
	assert.Equal(t, kim.ID, user.ID)

	_, err = r.Resolve(ctx, LoginRequest{Email: "kim@example.com", NickName: "jieun", Password: "zxcv!987lkjh"})
	assert.True(t, apperrors.Is(err, apperrors.KindAuthentication))

	// An unknown email is not rescued by a valid phone.
	_, err = r.Resolve(ctx, LoginRequest{Email: "nobody@example.com", Phone: "010-1111-2222", Password: "qwer!234asdf"})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, msgInvalidCredentials, appErr.Message)
}

func TestResolveFailures(t *testing.T) {
	r, users := newTestResolver(t, optionalPolicy)
	createTestUser(t, users, testUser{
		username: "kim", email: "kim@example.com", phone: "010-1111-2222",
		nickName: "minsu", password: "qwer!234asdf", active: true,
	})
	createTestUser(t, users, testUser{
		username: "park", email: "park@example.com", phone: "010-5555-6666",
		nickName: "dormant", password: "qwer!234asdf", active: false,
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		req     LoginRequest
		kind    apperrors.Kind
		message string
	}{
		{"wrong password", LoginRequest{Email: "kim@example.com", Password: "nope"}, apperrors.KindAuthentication, msgInvalidCredentials},
		{"unknown nickname", LoginRequest{NickName: "ghost", Password: "qwer!234asdf"}, apperrors.KindAuthentication, msgInvalidCredentials},
		{"no identifier", LoginRequest{Password: "qwer!234asdf"}, apperrors.KindAuthentication, `Must include "email", "phone" or "nick_name" and "password".`},
		{"inactive account", LoginRequest{NickName: "dormant", Password: "qwer!234asdf"}, apperrors.KindAuthentication, msgAccountDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, tt.req)
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "expected application error, got %v", err)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}

	t.Run("missing password", func(t *testing.T) {
		_, err := r.Resolve(ctx, LoginRequest{Email: "kim@example.com"})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		assert.Equal(t, []string{"This field is required."}, appErr.Fields["password"])
	})
}

func TestResolveMandatoryVerification(t *testing.T) {
	policy := optionalPolicy
	policy.EmailVerification = config.EmailVerificationMandatory
	r, users := newTestResolver(t, policy)
	createTestUser(t, users, testUser{
		username: "pending", email: "pending@example.com", phone: "010-0000-0001",
		nickName: "pending", password: "qwer!234asdf", active: false,
	})
	verified := createTestUser(t, users, testUser{
		username: "done", email: "done@example.com", phone: "010-0000-0002",
		nickName: "done", password: "qwer!234asdf", active: true, verified: true,
	})
	ctx := context.Background()

	_, err := r.Resolve(ctx, LoginRequest{Email: "pending@example.com", Password: "qwer!234asdf"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindVerification, appErr.Kind)
	assert.Equal(t, msgEmailNotVerified, appErr.Message)

	user, err := r.Resolve(ctx, LoginRequest{Email: "done@example.com", Password: "qwer!234asdf"})
	require.NoError(t, err)
	assert.Equal(t, verified.ID, user.ID)
}

func TestResolveOptionalVerificationAllowsUnverified(t *testing.T) {
	r, users := newTestResolver(t, optionalPolicy)
	u := createTestUser(t, users, testUser{
		username: "fresh", email: "fresh@example.com", phone: "010-0000-0003",
		nickName: "fresh", password: "qwer!234asdf", active: true,
	})

	user, err := r.Resolve(context.Background(), LoginRequest{Phone: "010-0000-0003", Password: "qwer!234asdf"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
}
