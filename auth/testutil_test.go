package auth

import (
	"context"
	"testing"
	"time"

	"capstone-nft/database"
	"capstone-nft/models"
	"capstone-nft/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type testUser struct {
	username string
	email    string
	phone    string
	nickName string
	password string
	active   bool
	verified bool
}

func createTestUser(t *testing.T, repo repositories.UserRepository, u testUser) *models.User {
	t.Helper()
	hashed, err := HashPassword(u.password)
	require.NoError(t, err)

	email := u.email
	nickName := u.nickName
	user := &models.User{
		Username: u.username,
		Email:    &email,
		Phone:    u.phone,
		Name:     u.username,
		NickName: &nickName,
		Password: hashed,
		IsActive: u.active,
	}
	address := &models.EmailAddress{
		Email:    email,
		Primary:  true,
		Verified: u.verified,
		Key:      u.username + "-key",
	}
	require.NoError(t, repo.CreateWithEmail(context.Background(), user, address))
	return user
}

// memoryRevocations is an in-memory TokenRepository.
type memoryRevocations struct {
	revoked map[string]time.Time
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, jti string, _ uint, expiresAt time.Time) error {
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *memoryRevocations) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for jti, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
