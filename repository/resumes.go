package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krshsl/intervue/models"
)

func (r *GORMRepository) CreateResume(ctx context.Context, resume *models.Resume) error {
	if err := r.db.WithContext(ctx).Create(resume).Error; err != nil {
		slog.Error("Failed to create resume", "error", err, "profile_id", resume.ProfileID)
		return fmt.Errorf("failed to create resume: %w", err)
	}
	slog.Info("Resume created", "resume_id", resume.ID, "profile_id", resume.ProfileID)
	return nil
}

// GetResume returns the resume only if it belongs to profileID.
func (r *GORMRepository) GetResume(ctx context.Context, id, profileID string) (*models.Resume, error) {
	var resume models.Resume
	err := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", id, profileID).
		First(&resume).Error
	if err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get resume", "error", err, "resume_id", id)
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &resume, nil
}

// ListResumesByProfile reads along by_profile, skipping soft-deleted rows.
func (r *GORMRepository) ListResumesByProfile(ctx context.Context, profileID string) ([]models.Resume, error) {
	var resumes []models.Resume
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND deleted = ?", profileID, false).
		Order("created_at DESC").
		Find(&resumes).Error; err != nil {
		slog.Error("Failed to list resumes", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// MarkResumeDeleted soft-deletes a resume. The row and its object stay until
// the cleanup task purges them.
func (r *GORMRepository) MarkResumeDeleted(ctx context.Context, id, profileID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Resume{}).
		Where("id = ? AND profile_id = ? AND deleted = ?", id, profileID, false).
		Updates(map[string]interface{}{"deleted": true, "updated_at": now()})
	if res.Error != nil {
		slog.Error("Failed to mark resume deleted", "error", res.Error, "resume_id", id)
		return fmt.Errorf("failed to mark resume deleted: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GORMRepository) ListDeletedResumes(ctx context.Context, limit int) ([]models.Resume, error) {
	var resumes []models.Resume
	if err := r.db.WithContext(ctx).
		Where("deleted = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&resumes).Error; err != nil {
		slog.Error("Failed to list deleted resumes", "error", err)
		return nil, fmt.Errorf("failed to list deleted resumes: %w", err)
	}
	return resumes, nil
}

// PurgeResume removes a resume row together with its chunks and critiques.
func (r *GORMRepository) PurgeResume(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("resume_id = ?", id).Delete(&models.ResumeChunk{}).Error; err != nil {
		return fmt.Errorf("failed to delete resume chunks: %w", err)
	}
	if err := db.Where("resume_id = ?", id).Delete(&models.ResumeCritique{}).Error; err != nil {
		return fmt.Errorf("failed to delete resume critiques: %w", err)
	}
	if err := db.Where("id = ?", id).Delete(&models.Resume{}).Error; err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	slog.Info("Resume purged", "resume_id", id)
	return nil
}

func (r *GORMRepository) CreateResumeChunks(ctx context.Context, chunks []models.ResumeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		slog.Error("Failed to create resume chunks", "error", err, "count", len(chunks))
		return fmt.Errorf("failed to create resume chunks: %w", err)
	}
	return nil
}

// ListResumeChunks reads along by_resume in chunk order.
func (r *GORMRepository) ListResumeChunks(ctx context.Context, resumeID string) ([]models.ResumeChunk, error) {
	var chunks []models.ResumeChunk
	if err := r.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		slog.Error("Failed to list resume chunks", "error", err, "resume_id", resumeID)
		return nil, fmt.Errorf("failed to list resume chunks: %w", err)
	}
	return chunks, nil
}

func (r *GORMRepository) ListResumeCritiques(ctx context.Context, resumeID string) ([]models.ResumeCritique, error) {
	var critiques []models.ResumeCritique
	if err := r.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("created_at DESC").
		Find(&critiques).Error; err != nil {
		slog.Error("Failed to list resume critiques", "error", err, "resume_id", resumeID)
		return nil, fmt.Errorf("failed to list resume critiques: %w", err)
	}
	return critiques, nil
}
