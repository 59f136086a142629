package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krshsl/intervue/models"
)

// ListQuestionsByTag reads along by_tag. An empty tag lists every question.
func (r *GORMRepository) ListQuestionsByTag(ctx context.Context, tag string) ([]models.Question, error) {
	var questions []models.Question
	query := r.db.WithContext(ctx).Order("title ASC")
	if tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}
	if err := query.Find(&questions).Error; err != nil {
		slog.Error("Failed to list questions", "error", err, "tag", tag)
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (r *GORMRepository) GetQuestionByTitle(ctx context.Context, title string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&question).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (r *GORMRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create question", "error", err, "title", question.Title)
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// ListResourcesByTag reads along by_tag. An empty tag lists every resource.
func (r *GORMRepository) ListResourcesByTag(ctx context.Context, tag string) ([]models.Resource, error) {
	var resources []models.Resource
	query := r.db.WithContext(ctx).Order("title ASC")
	if tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}
	if err := query.Find(&resources).Error; err != nil {
		slog.Error("Failed to list resources", "error", err, "tag", tag)
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

func (r *GORMRepository) GetResourceByURL(ctx context.Context, url string) (*models.Resource, error) {
	var resource models.Resource
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&resource).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &resource, nil
}

func (r *GORMRepository) CreateResource(ctx context.Context, resource *models.Resource) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		slog.Error("Failed to create resource", "error", err, "url", resource.URL)
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}
