package services

import (
	"context"
	"fmt"
	"testing"

	"capstone-nft/apperrors"
	"capstone-nft/models"
	"capstone-nft/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedUser(t *testing.T, repo repositories.UserRepository, name string, staff bool) *models.User {
	t.Helper()
	email := name + "@example.com"
	nickName := name + "-nick"
	user := &models.User{
		Username: name,
		Email:    &email,
		Phone:    fmt.Sprintf("010-%s", name),
		Name:     name,
		NickName: &nickName,
		Password: "hash",
		IsActive: true,
		IsStaff:  staff,
	}
	require.NoError(t, repo.CreateWithEmail(context.Background(), user, &models.EmailAddress{Email: email, Key: name + "-key"}))
	return user
}

func newUserServiceFixture(t *testing.T) (UserService, repositories.UserRepository) {
	t.Helper()
	repo := repositories.NewUserRepository(setupTestDB(t))
	return NewUserService(repo, zap.NewNop()), repo
}

func TestFollowAndCounts(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	ctx := context.Background()
	kim := seedUser(t, repo, "kim", false)
	lee := seedUser(t, repo, "lee", false)

	target, err := svc.Follow(ctx, kim.ID, lee.ID)
	require.NoError(t, err)
	assert.Equal(t, lee.ID, target.ID)
	assert.Equal(t, "lee-nick님을 팔로우 하였습니다.", FollowMessage(target))

	// Following again changes nothing.
	_, err = svc.Follow(ctx, kim.ID, lee.ID)
	require.NoError(t, err)

	kimProfile, err := svc.MyProfile(ctx, kim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kimProfile.FollowingNum)
	assert.Equal(t, int64(0), kimProfile.FollowerNum)
	assert.Equal(t, "kim@example.com", kimProfile.Email)
	assert.Equal(t, "010-kim", kimProfile.Phone)

	leeProfile, err := svc.MyProfile(ctx, lee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), leeProfile.FollowingNum)
	assert.Equal(t, int64(1), leeProfile.FollowerNum)

	followers, err := svc.ListFollowers(ctx, lee.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, BriefProfile{ID: kim.ID, Name: "kim", NickName: "kim-nick", FollowingNum: 1}, followers[0])

	followings, err := svc.ListFollowings(ctx, kim.ID)
	require.NoError(t, err)
	require.Len(t, followings, 1)
	assert.Equal(t, BriefProfile{ID: lee.ID, Name: "lee", NickName: "lee-nick", FollowerNum: 1}, followings[0])

	empty, err := svc.ListFollowers(ctx, kim.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFollowRejections(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	ctx := context.Background()
	kim := seedUser(t, repo, "kim", false)

	_, err := svc.Follow(ctx, kim.ID, kim.ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind)
	assert.Equal(t, "본인을 팔로우 할 수 없습니다.", appErr.Message)

	_, err = svc.Follow(ctx, kim.ID, kim.ID+99)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	profile, err := svc.MyProfile(ctx, kim.ID)
	require.NoError(t, err)
	assert.Zero(t, profile.FollowingNum)
}

func TestListAllUsers(t *testing.T) {
	svc, repo := newUserServiceFixture(t)
	ctx := context.Background()
	admin := seedUser(t, repo, "admin", true)
	kim := seedUser(t, repo, "kim", false)
	lee := seedUser(t, repo, "lee", false)

	t.Run("staff sees non-staff users", func(t *testing.T) {
		result, err := svc.ListAllUsers(ctx, admin.ID, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 10, result.PageSize)
		require.Len(t, result.Users, 2)
		assert.Equal(t, kim.ID, result.Users[0].ID)
		assert.Equal(t, lee.ID, result.Users[1].ID)
		assert.Equal(t, "kim@example.com", result.Users[0].Email)
	})

	t.Run("non-staff is refused", func(t *testing.T) {
		_, err := svc.ListAllUsers(ctx, kim.ID, 1, 10)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindAuthorization, appErr.Kind)
		assert.Equal(t, "관리자만 접근할 수 있습니다.", appErr.Message)
	})
}
