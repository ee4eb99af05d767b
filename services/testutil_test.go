package services

import (
	"context"
	"sync"
	"testing"

	"capstone-nft/auth"
	"capstone-nft/config"
	"capstone-nft/database"

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

func testPolicy(verification string) auth.Policy {
	return auth.PolicyFromConfig(config.AuthConfig{
		EmailVerification: verification,
		UniqueEmail:       true,
		PasswordMinLength: 8,
	})
}

type sentMail struct {
	email string
	key   string
}

// recordingMailer keeps every verification it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendVerification(_ context.Context, email, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{email: email, key: key})
	return m.err
}
