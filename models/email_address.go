package models

import "time"

// EmailAddress tracks the verification state of a user's email.
type EmailAddress struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"index;not null"`
	Email    string `gorm:"size:254;index;not null"`
	Verified bool   `gorm:"not null"`
	Primary  bool   `gorm:"not null"`
	Key      string `gorm:"size:64;uniqueIndex;not null"`
	SentAt   *time.Time
}
