package repositories

import (
	"context"
	"fmt"
	"testing"

	"capstone-nft/database"
	"capstone-nft/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// seedUser inserts a user whose email, nickname and phone derive from name.
func seedUser(t *testing.T, repo UserRepository, name string, staff bool) *models.User {
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
	address := &models.EmailAddress{Email: email, Primary: true, Key: name + "-key"}
	require.NoError(t, repo.CreateWithEmail(context.Background(), user, address))
	return user
}
