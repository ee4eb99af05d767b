package repositories

import (
	"context"
	"errors"
	"strings"

	"capstone-nft/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSelfFollow is returned when an edge would point a user at itself.
var ErrSelfFollow = errors.New("user cannot follow themselves")

// UserRepository interface defines User-related database operations
type UserRepository interface {
	// CreateWithEmail stores the user and its email verification record atomically.
	CreateWithEmail(ctx context.Context, user *models.User, email *models.EmailAddress) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByNickName(ctx context.Context, nickName string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	AddFollower(ctx context.Context, userID, followerID uint) error
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	Followings(ctx context.Context, userID uint) ([]models.User, error)
	FollowCounts(ctx context.Context, userIDs ...uint) (map[uint]FollowCount, error)

	FindNonStaff(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
}

// FollowCount holds the derived edge counts of one user.
type FollowCount struct {
	Followers  int64
	Followings int64
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateWithEmail(ctx context.Context, user *models.User, email *models.EmailAddress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		if email == nil {
			return nil
		}
		email.UserID = user.ID
		return tx.Create(email).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByEmail matches the email case-insensitively.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, "phone = ?", phone)
}

func (r *userRepository) FindByNickName(ctx context.Context, nickName string) (*models.User, error) {
	return r.findOne(ctx, "nick_name = ?", nickName)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).Order("id").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddFollower records that followerID follows userID. Existing edges are left untouched.
func (r *userRepository) AddFollower(ctx context.Context, userID, followerID uint) error {
	if userID == followerID {
		return ErrSelfFollow
	}
	edge := models.UserFollower{UserID: userID, FollowerID: followerID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

// Followers lists the users following userID.
func (r *userRepository) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_followers uf ON uf.follower_id = users.id").
		Where("uf.user_id = ?", userID).
		Order("uf.created_at, users.id").
		Find(&users).Error
	return users, err
}

// Followings lists the users userID follows.
func (r *userRepository) Followings(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_followers uf ON uf.user_id = users.id").
		Where("uf.follower_id = ?", userID).
		Order("uf.created_at, users.id").
		Find(&users).Error
	return users, err
}

// FollowCounts returns the follower and following counts of each requested user.
// Users without edges are present with zero counts.
func (r *userRepository) FollowCounts(ctx context.Context, userIDs ...uint) (map[uint]FollowCount, error) {
	counts := make(map[uint]FollowCount, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}
	for _, id := range userIDs {
		counts[id] = FollowCount{}
	}

	type row struct {
		ID    uint
		Total int64
	}

	var followers []row
	if err := r.db.WithContext(ctx).Model(&models.UserFollower{}).
		Select("user_id AS id, COUNT(*) AS total").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&followers).Error; err != nil {
		return nil, err
	}
	for _, f := range followers {
		c := counts[f.ID]
		c.Followers = f.Total
		counts[f.ID] = c
	}

	var followings []row
	if err := r.db.WithContext(ctx).Model(&models.UserFollower{}).
		Select("follower_id AS id, COUNT(*) AS total").
		Where("follower_id IN ?", userIDs).
		Group("follower_id").
		Scan(&followings).Error; err != nil {
		return nil, err
	}
	for _, f := range followings {
		c := counts[f.ID]
		c.Followings = f.Total
		counts[f.ID] = c
	}
	return counts, nil
}

// FindNonStaff pages through users that are not staff, oldest first.
func (r *userRepository) FindNonStaff(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	offset := (page - 1) * pageSize
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{}).Where("is_staff = ?", false)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := r.db.WithContext(ctx).Where("is_staff = ?", false).
		Order("id").Offset(offset).Limit(pageSize).Find(&users)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return users, total, nil
}
