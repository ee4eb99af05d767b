package repositories

import (
	"context"

	"capstone-nft/models"

	"gorm.io/gorm"
)

// EmailRepository manages email verification records.
type EmailRepository interface {
	FindByKey(ctx context.Context, key string) (*models.EmailAddress, error)
	IsVerified(ctx context.Context, userID uint, email string) (bool, error)
	// Confirm marks the address verified and activates its owner.
	Confirm(ctx context.Context, address *models.EmailAddress) error
}

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) FindByKey(ctx context.Context, key string) (*models.EmailAddress, error) {
	if key == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var address models.EmailAddress
	if err := r.db.WithContext(ctx).Where(&models.EmailAddress{Key: key}).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *emailRepository) IsVerified(ctx context.Context, userID uint, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EmailAddress{}).
		Where("user_id = ? AND LOWER(email) = LOWER(?) AND verified = ?", userID, email, true).
		Count(&count).Error
	return count > 0, err
}

func (r *emailRepository) Confirm(ctx context.Context, address *models.EmailAddress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(address).Update("verified", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", address.UserID).Update("is_active", true).Error
	})
}
