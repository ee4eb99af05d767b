package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"capstone-nft/config"
	"capstone-nft/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	// GORM logger configuration, routed through zap
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // keep credentials out of the log
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database connection successful and migrations complete", zap.String("driver", cfg.Driver))
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserFollower{},
		&models.EmailAddress{},
		&models.RevokedToken{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedAdmin creates the staff account described by cfg when no user with that
// email exists yet. An empty email disables seeding.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig, log *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil
	}
	if cfg.Password == "" {
		return errors.New("admin.password is required when admin.email is set")
	}

	var existing models.User
	err := db.Where("LOWER(email) = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	username, err := models.DeriveUsername(email, func(candidate string) (bool, error) {
		var count int64
		err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error
		return count > 0, err
	})
	if err != nil {
		return fmt.Errorf("derive admin username: %w", err)
	}
	admin := models.User{
		Username: username,
		Email:    &email,
		Password: string(hashedPassword),
		Name:     "admin",
		IsActive: true,
		IsStaff:  true,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.EmailAddress{
			UserID:   admin.ID,
			Email:    email,
			Verified: true,
			Primary:  true,
			Key:      uuid.NewString(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("Created initial staff user", zap.String("email", email))
	return nil
}
