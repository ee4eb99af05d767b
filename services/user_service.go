package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capstone-nft/apperrors"
	"capstone-nft/models"
	"capstone-nft/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgStaffOnly  = "관리자만 접근할 수 있습니다."
	msgSelfFollow = "본인을 팔로우 할 수 없습니다."
)

// UserService exposes profile and follow-graph operations.
type UserService interface {
	MyProfile(ctx context.Context, userID uint) (*Profile, error)
	Follow(ctx context.Context, actorID uint, targetID uint) (*models.User, error)
	ListFollowers(ctx context.Context, userID uint) ([]BriefProfile, error)
	ListFollowings(ctx context.Context, userID uint) ([]BriefProfile, error)
	ListAllUsers(ctx context.Context, requestingUserID uint, page int, pageSize int) (*PaginatedUsers, error)
}

// Profile is the full view of a user, shown only to the user themselves
// and to staff.
type Profile struct {
	ID           uint      `json:"id"`
	Created      time.Time `json:"created"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	NickName     string    `json:"nick_name"`
	FollowingNum int64     `json:"following_num"`
	FollowerNum  int64     `json:"follower_num"`
}

// BriefProfile is the public view of a user.
type BriefProfile struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	NickName     string `json:"nick_name"`
	FollowingNum int64  `json:"following_num"`
	FollowerNum  int64  `json:"follower_num"`
}

type PaginatedUsers struct {
	Users    []Profile `json:"users"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type userService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

var _ UserService = (*userService)(nil)

func NewUserService(repo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger.Named("users")}
}

func (s *userService) MyProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles(ctx, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// Follow makes actorID a follower of targetID. Repeating it is harmless.
func (s *userService) Follow(ctx context.Context, actorID uint, targetID uint) (*models.User, error) {
	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actorID == target.ID {
		return nil, apperrors.NewForbidden(msgSelfFollow)
	}

	if err := s.repo.AddFollower(ctx, target.ID, actorID); err != nil {
		if errors.Is(err, repositories.ErrSelfFollow) {
			return nil, apperrors.NewForbidden(msgSelfFollow)
		}
		return nil, apperrors.NewInternal("Failed to follow user", err)
	}
	s.logger.Debug("follow edge added", zap.Uint("follower_id", actorID), zap.Uint("user_id", target.ID))
	return target, nil
}

func (s *userService) ListFollowers(ctx context.Context, userID uint) ([]BriefProfile, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.repo.Followers(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternal("Database error retrieving followers", err)
	}
	return s.briefProfiles(ctx, users)
}

func (s *userService) ListFollowings(ctx context.Context, userID uint) ([]BriefProfile, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.repo.Followings(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternal("Database error retrieving followings", err)
	}
	return s.briefProfiles(ctx, users)
}

// ListAllUsers pages through non-staff users. Only staff may call it.
func (s *userService) ListAllUsers(ctx context.Context, requestingUserID uint, page int, pageSize int) (*PaginatedUsers, error) {
	caller, err := s.getUser(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff {
		return nil, apperrors.NewAuthorization(msgStaffOnly)
	}

	users, total, err := s.repo.FindNonStaff(ctx, page, pageSize)
	if err != nil {
		return nil, apperrors.NewInternal("Database error retrieving users", err)
	}
	profiles, err := s.profiles(ctx, users)
	if err != nil {
		return nil, err
	}
	return &PaginatedUsers{Users: profiles, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *userService) getUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.NewInternal("Database error retrieving user", err)
	}
	return user, nil
}

func (s *userService) counts(ctx context.Context, users []models.User) (map[uint]repositories.FollowCount, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	counts, err := s.repo.FollowCounts(ctx, ids...)
	if err != nil {
		return nil, apperrors.NewInternal("Database error counting follows", err)
	}
	return counts, nil
}

func (s *userService) profiles(ctx context.Context, users []models.User) ([]Profile, error) {
	counts, err := s.counts(ctx, users)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, len(users))
	for i := range users {
		out[i] = mapUserToProfile(&users[i], counts[users[i].ID])
	}
	return out, nil
}

func (s *userService) briefProfiles(ctx context.Context, users []models.User) ([]BriefProfile, error) {
	counts, err := s.counts(ctx, users)
	if err != nil {
		return nil, err
	}
	out := make([]BriefProfile, len(users))
	for i := range users {
		out[i] = mapUserToBrief(&users[i], counts[users[i].ID])
	}
	return out, nil
}

func mapUserToProfile(user *models.User, c repositories.FollowCount) Profile {
	return Profile{
		ID:           user.ID,
		Created:      user.CreatedAt,
		Email:        user.EmailValue(),
		Phone:        user.Phone,
		Name:         user.Name,
		NickName:     user.NickNameValue(),
		FollowingNum: c.Followings,
		FollowerNum:  c.Followers,
	}
}

func mapUserToBrief(user *models.User, c repositories.FollowCount) BriefProfile {
	return BriefProfile{
		ID:           user.ID,
		Name:         user.Name,
		NickName:     user.NickNameValue(),
		FollowingNum: c.Followings,
		FollowerNum:  c.Followers,
	}
}

// FollowMessage is the confirmation shown after following target.
func FollowMessage(target *models.User) string {
	return fmt.Sprintf("%s님을 팔로우 하였습니다.", target.NickNameValue())
}
