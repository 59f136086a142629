package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Company struct {
	Base
	Name        string    `gorm:"not null" json:"name"`
	Domain      *string   `json:"domain,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Company) TableName() string {
	return "companies"
}

// JobPosting is a scraped job advert. RawHTML is kept small; large blobs are avoided.
type JobPosting struct {
	Base
	CompanyID     string         `gorm:"type:uuid;not null" json:"company_id"`
	SourceURL     string         `gorm:"type:text;not null" json:"source_url"`
	Title         *string        `json:"title,omitempty"`
	RawHTML       *string        `gorm:"column:raw_html;type:text" json:"raw_html,omitempty"`
	ExtractedText *string        `gorm:"type:text" json:"extracted_text,omitempty"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"` // location, salary, role, tags
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	ScrapedAt     *time.Time     `json:"scraped_at,omitempty"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}

// CompanyDocChunk is a retrieval chunk cut from a job posting.
type CompanyDocChunk struct {
	Base
	JobPostingID string           `gorm:"type:uuid;not null" json:"job_posting_id"`
	CompanyID    *string          `gorm:"type:uuid" json:"company_id,omitempty"`
	Text         string           `gorm:"type:text;not null" json:"text"`
	ChunkIndex   int              `gorm:"not null" json:"chunk_index"`
	Embedding    *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	Metadata     datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
}

func (CompanyDocChunk) TableName() string {
	return "company_doc_chunks"
}

func (c *CompanyDocChunk) BeforeSave(tx *gorm.DB) error {
	return ValidateEmbedding(c.Embedding)
}
