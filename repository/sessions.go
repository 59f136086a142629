package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krshsl/intervue/models"
)

func (r *GORMRepository) CreateInterviewSession(ctx context.Context, session *models.InterviewSession) error {
	if session.Stage == "" {
		session.Stage = models.StageCreated
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create interview session", "error", err, "profile_id", session.ProfileID)
		return fmt.Errorf("failed to create interview session: %w", err)
	}
	slog.Info("Interview session created", "session_id", session.ID, "profile_id", session.ProfileID)
	return nil
}

// GetInterviewSession returns the session only if it belongs to profileID.
func (r *GORMRepository) GetInterviewSession(ctx context.Context, id, profileID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", id, profileID).
		First(&session).Error
	if err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get interview session", "error", err, "session_id", id)
		return nil, fmt.Errorf("failed to get interview session: %w", err)
	}
	return &session, nil
}

// ListInterviewSessions reads along by_profile, newest first.
func (r *GORMRepository) ListInterviewSessions(ctx context.Context, profileID string, limit, offset int) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	query := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&sessions).Error; err != nil {
		slog.Error("Failed to list interview sessions", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to list interview sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStage stores stage as given. Any string is accepted and no
// transition rules apply. Reaching StageCompleted also stamps ended_at.
func (r *GORMRepository) UpdateSessionStage(ctx context.Context, id, profileID, stage string) (*models.InterviewSession, error) {
	ts := now()
	values := map[string]interface{}{"stage": stage, "updated_at": ts}
	if stage == models.StageCompleted {
		values["ended_at"] = ts
	}

	res := r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND profile_id = ?", id, profileID).
		Updates(values)
	if res.Error != nil {
		slog.Error("Failed to update session stage", "error", res.Error, "session_id", id)
		return nil, fmt.Errorf("failed to update session stage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}

	slog.Info("Session stage updated", "session_id", id, "stage", stage)
	return r.GetInterviewSession(ctx, id, profileID)
}

func (r *GORMRepository) ListQuestionInstances(ctx context.Context, sessionID string) ([]models.QuestionInstance, error) {
	var instances []models.QuestionInstance
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&instances).Error; err != nil {
		slog.Error("Failed to list question instances", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to list question instances: %w", err)
	}
	return instances, nil
}

func (r *GORMRepository) ListEvaluations(ctx context.Context, sessionID string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&evaluations).Error; err != nil {
		slog.Error("Failed to list evaluations", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evaluations, nil
}

// ListFeedbackReports reads along by_profile, newest first.
func (r *GORMRepository) ListFeedbackReports(ctx context.Context, profileID string) ([]models.FeedbackReport, error) {
	var reports []models.FeedbackReport
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		slog.Error("Failed to list feedback reports", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to list feedback reports: %w", err)
	}
	return reports, nil
}
