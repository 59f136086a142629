package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krshsl/intervue/models"
)

const defaultNeighbours = 5

// nearest orders by cosine distance to query, which is what the hnsw
// vector_cosine_ops indexes serve.
func nearest(db *gorm.DB, query []float32, k int) (*gorm.DB, error) {
	v := pgvector.NewVector(query)
	if err := models.ValidateEmbedding(&v); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = defaultNeighbours
	}
	return db.
		Where("embedding IS NOT NULL").
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{v}, WithoutParentheses: true},
		}).
		Limit(k), nil
}

// SearchResumeChunks returns the k chunks of a profile's resumes closest to query.
func (r *GORMRepository) SearchResumeChunks(ctx context.Context, profileID string, query []float32, k int) ([]models.ResumeChunk, error) {
	db, err := nearest(r.db.WithContext(ctx).Where("profile_id = ?", profileID), query, k)
	if err != nil {
		return nil, err
	}

	var chunks []models.ResumeChunk
	if err := db.Find(&chunks).Error; err != nil {
		slog.Error("Failed to search resume chunks", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to search resume chunks: %w", err)
	}
	return chunks, nil
}

// SearchCompanyDocChunks returns the k company chunks closest to query. An
// empty companyID searches across all companies.
func (r *GORMRepository) SearchCompanyDocChunks(ctx context.Context, companyID string, query []float32, k int) ([]models.CompanyDocChunk, error) {
	base := r.db.WithContext(ctx)
	if companyID != "" {
		base = base.Where("company_id = ?", companyID)
	}
	db, err := nearest(base, query, k)
	if err != nil {
		return nil, err
	}

	var chunks []models.CompanyDocChunk
	if err := db.Find(&chunks).Error; err != nil {
		slog.Error("Failed to search company chunks", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to search company chunks: %w", err)
	}
	return chunks, nil
}
