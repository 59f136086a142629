package models

import (
	"time"

	"gorm.io/datatypes"
)

// Profile is the local user record linked to an external auth identity.
type Profile struct {
	Base
	FullName    string         `gorm:"size:255" json:"full_name"`
	Email       string         `gorm:"not null" json:"email"`
	AvatarURL   *string        `gorm:"size:500" json:"avatar_url,omitempty"`
	Preferences datatypes.JSON `gorm:"type:jsonb" json:"preferences,omitempty"` // voice prefs, difficulty, etc.
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   *time.Time     `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	Deleted     bool           `json:"deleted,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}

// AuthUser is the auth component's own identity record. UserID points at the
// profile created for it by the create-user callback.
type AuthUser struct {
	Base
	Email        string    `gorm:"not null" json:"email"`
	Name         *string   `json:"name,omitempty"`
	Image        *string   `json:"image,omitempty"`
	PasswordHash string    `gorm:"not null" json:"-"`
	UserID       string    `gorm:"type:uuid;not null" json:"user_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (AuthUser) TableName() string {
	return "auth_users"
}

// AuthSession is a long-lived login session. Only the token hash is stored.
type AuthSession struct {
	Base
	AuthUserID string    `gorm:"type:uuid;not null" json:"auth_user_id"`
	TokenHash  string    `gorm:"not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}
