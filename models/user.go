package models

import "time"

// User is an account of the service. Username is the canonical identifier the
// credential resolver ends up at, whatever field the client logged in with.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:150;uniqueIndex;not null"`
	Email     *string   `gorm:"size:254;uniqueIndex"`
	Phone     string    `gorm:"size:32;index"`
	Name      string    `gorm:"size:100"`
	NickName  *string   `gorm:"size:100;uniqueIndex"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	IsActive  bool      `gorm:"not null"`
	IsStaff   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time
}

// EmailValue returns the email or "" when unset.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// NickNameValue returns the nickname or "" when unset.
func (u *User) NickNameValue() string {
	if u.NickName == nil {
		return ""
	}
	return *u.NickName
}

// UserFollower is a follow edge: FollowerID follows UserID. The composite
// primary key keeps edges unique.
type UserFollower struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false"`
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false;index;check:chk_user_followers_no_self,user_id <> follower_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
