package database

import (
	"testing"

	"capstone-nft/config"
	"capstone-nft/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:seed_admin?mode=memory&cache=shared"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	cfg := config.AdminConfig{Email: "Admin@Example.com", Password: "Adm1n-pass!"}
	require.NoError(t, SeedAdmin(db, cfg, zap.NewNop()))
	// Seeding is idempotent.
	require.NoError(t, SeedAdmin(db, cfg, zap.NewNop()))

	var admins []models.User
	require.NoError(t, db.Where("is_staff = ?", true).Find(&admins).Error)
	require.Len(t, admins, 1)
	admin := admins[0]
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, "admin@example.com", admin.EmailValue())
	assert.True(t, admin.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("Adm1n-pass!")))

	var address models.EmailAddress
	require.NoError(t, db.Where("user_id = ?", admin.ID).First(&address).Error)
	assert.True(t, address.Verified)
	assert.True(t, address.Primary)
}

func TestSeedAdminSkipsWithoutEmail(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:seed_skip?mode=memory&cache=shared"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, SeedAdmin(db, config.AdminConfig{}, zap.NewNop()))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Error(t, SeedAdmin(db, config.AdminConfig{Email: "admin@example.com"}, zap.NewNop()))
}

func TestSeedAdminAvoidsTakenUsername(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:seed_taken?mode=memory&cache=shared"}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	// A regular account registered from admin@elsewhere.com already owns "admin".
	other := "admin@elsewhere.com"
	require.NoError(t, db.Create(&models.User{Username: "admin", Email: &other, Password: "hash", IsActive: true}).Error)

	require.NoError(t, SeedAdmin(db, config.AdminConfig{Email: "admin@example.com", Password: "Adm1n-pass!"}, zap.NewNop()))

	var staff models.User
	require.NoError(t, db.Where("is_staff = ?", true).First(&staff).Error)
	assert.Equal(t, "admin2", staff.Username)
	assert.Equal(t, "admin@example.com", staff.EmailValue())
}
