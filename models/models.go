package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// This package holds the gorm models for every persisted table.
//
// Database schema overview:
// 1. profiles - local user records linked to an auth identity
// 2. resumes, resume_chunks, resume_critiques - uploaded documents and their text chunks
// 3. companies, job_postings, company_doc_chunks - employer data used for retrieval
// 4. interview_sessions, session_events, transcript_chunks - one practice interaction and its log
// 5. questions, question_instances, evaluations, feedback_reports - content and scoring
// 6. resources - courses and articles suggested after a session
// 7. api_keys, audit_logs, system_tasks - bookkeeping
// 8. auth_users, auth_sessions - owned by the auth component
//
// DDL lives in the schema package migrations; these structs only map columns.

// EmbeddingDimensions is the width of every vector index in the schema.
const EmbeddingDimensions = 1536

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write hits a unique index.
	ErrDuplicate = errors.New("duplicate record")
	// ErrEmbeddingDimensions is returned when an embedding has the wrong width.
	ErrEmbeddingDimensions = errors.New("embedding has wrong dimensions")
)

// Base carries the identifier shared by every table.
type Base struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate assigns a random UUID when the caller did not provide one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// NewEmbedding wraps a float slice for storage, or returns nil for an empty slice.
func NewEmbedding(values []float32) *pgvector.Vector {
	if len(values) == 0 {
		return nil
	}
	v := pgvector.NewVector(values)
	return &v
}

// ValidateEmbedding checks an optional embedding against EmbeddingDimensions.
func ValidateEmbedding(v *pgvector.Vector) error {
	if v == nil {
		return nil
	}
	if n := len(v.Slice()); n != EmbeddingDimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrEmbeddingDimensions, n, EmbeddingDimensions)
	}
	return nil
}
