package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krshsl/intervue/models"
)

func (r *GORMRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		slog.Error("Failed to create company", "error", err, "name", company.Name)
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetCompanyByName reads along by_name.
func (r *GORMRepository) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&company).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get company", "error", err, "name", name)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

func (r *GORMRepository) CreateJobPosting(ctx context.Context, posting *models.JobPosting) error {
	if err := r.db.WithContext(ctx).Create(posting).Error; err != nil {
		slog.Error("Failed to create job posting", "error", err, "company_id", posting.CompanyID)
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

func (r *GORMRepository) GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error) {
	var posting models.JobPosting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&posting).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get job posting", "error", err, "job_posting_id", id)
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return &posting, nil
}

// ListJobPostingsByCompany reads along by_company.
func (r *GORMRepository) ListJobPostingsByCompany(ctx context.Context, companyID string) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&postings).Error; err != nil {
		slog.Error("Failed to list job postings", "error", err, "company_id", companyID)
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	return postings, nil
}

func (r *GORMRepository) CreateCompanyDocChunks(ctx context.Context, chunks []models.CompanyDocChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		slog.Error("Failed to create company doc chunks", "error", err, "count", len(chunks))
		return fmt.Errorf("failed to create company doc chunks: %w", err)
	}
	return nil
}

// ListCompanyDocChunks reads along by_jobPosting in chunk order.
func (r *GORMRepository) ListCompanyDocChunks(ctx context.Context, jobPostingID string) ([]models.CompanyDocChunk, error) {
	var chunks []models.CompanyDocChunk
	if err := r.db.WithContext(ctx).
		Where("job_posting_id = ?", jobPostingID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		slog.Error("Failed to list company doc chunks", "error", err, "job_posting_id", jobPostingID)
		return nil, fmt.Errorf("failed to list company doc chunks: %w", err)
	}
	return chunks, nil
}
