package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// APIKey records that a key of some kind exists. The secret itself is never
// stored here, only its masked form.
type APIKey struct {
	Base
	ProfileID *string        `gorm:"type:uuid" json:"profile_id,omitempty"`
	Kind      string         `gorm:"not null" json:"kind"` // vocode, provider, etc.
	MaskedKey string         `gorm:"not null" json:"masked_key"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"` // expiry, scopes
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// MaskKey keeps the last four characters of key and hides the rest.
// Keys of four characters or fewer are masked entirely.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// ActorSystemName is the audit actor used when no profile is involved.
const ActorSystemName = "system"

type AuditLog struct {
	Base
	Actor     *string        `json:"actor,omitempty"` // profile id or system
	Action    string         `gorm:"not null" json:"action"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// System task kinds and states.
const (
	TaskCleanup = "cleanup"
	TaskReindex = "reindex"
	TaskSummary = "summary"

	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

type SystemTask struct {
	Base
	Kind      string         `gorm:"not null" json:"kind"`
	State     string         `gorm:"not null" json:"state"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt *time.Time     `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

func (SystemTask) TableName() string {
	return "system_tasks"
}
