package models

import (
	"path"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resume holds metadata for one uploaded file. The file itself lives in object storage.
type Resume struct {
	Base
	ProfileID  string         `gorm:"type:uuid;not null" json:"profile_id"`
	Filename   string         `gorm:"not null" json:"filename"`
	StorageURL string         `gorm:"type:text;not null" json:"storage_url"`
	ParsedJSON datatypes.JSON `gorm:"type:jsonb" json:"parsed_json,omitempty"` // education, experience
	Summary    *string        `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  *time.Time     `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	Deleted    bool           `json:"deleted,omitempty"`
}

func (Resume) TableName() string {
	return "resumes"
}

// ObjectKey is the storage key the resume file was uploaded under.
func (r Resume) ObjectKey() string {
	return ResumeObjectKey(r.ProfileID, r.ID, r.Filename)
}

// ResumeObjectKey builds the object storage key for a resume file.
func ResumeObjectKey(profileID, resumeID, filename string) string {
	return path.Join("resumes", profileID, resumeID, path.Base(filename))
}

// ResumeChunk is a segment of resume text with an optional embedding.
type ResumeChunk struct {
	Base
	ResumeID   string           `gorm:"type:uuid;not null" json:"resume_id"`
	ProfileID  string           `gorm:"type:uuid;not null" json:"profile_id"`
	Text       string           `gorm:"type:text;not null" json:"text"`
	ChunkIndex int              `gorm:"not null" json:"chunk_index"`
	StartToken *int             `json:"start_token,omitempty"`
	EndToken   *int             `json:"end_token,omitempty"`
	Embedding  *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	Metadata   datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
}

func (ResumeChunk) TableName() string {
	return "resume_chunks"
}

func (c *ResumeChunk) BeforeSave(tx *gorm.DB) error {
	return ValidateEmbedding(c.Embedding)
}

// ResumeCritique is written feedback on one resume.
type ResumeCritique struct {
	Base
	ResumeID    string         `gorm:"type:uuid;not null" json:"resume_id"`
	ProfileID   string         `gorm:"type:uuid;not null" json:"profile_id"`
	Critique    string         `gorm:"type:text;not null" json:"critique"`
	Suggestions pq.StringArray `gorm:"type:text[]" json:"suggestions,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (ResumeCritique) TableName() string {
	return "resume_critiques"
}
