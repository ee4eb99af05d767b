package repositories

import (
	"context"
	"testing"

	"capstone-nft/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmailConfirmation(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	emails := NewEmailRepository(db)
	ctx := context.Background()

	kim := seedUser(t, users, "kim", false)
	require.NoError(t, db.Model(kim).Update("is_active", false).Error)

	verified, err := emails.IsVerified(ctx, kim.ID, "kim@example.com")
	require.NoError(t, err)
	assert.False(t, verified)

	address, err := emails.FindByKey(ctx, "kim-key")
	require.NoError(t, err)
	assert.Equal(t, kim.ID, address.UserID)

	require.NoError(t, emails.Confirm(ctx, address))

	verified, err = emails.IsVerified(ctx, kim.ID, "KIM@example.com")
	require.NoError(t, err)
	assert.True(t, verified)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, kim.ID).Error)
	assert.True(t, reloaded.IsActive)
}

func TestFindByKeyRejectsEmptyKey(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, NewUserRepository(db), "kim", false)

	_, err := NewEmailRepository(db).FindByKey(context.Background(), "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
