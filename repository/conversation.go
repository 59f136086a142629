package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/krshsl/intervue/models"
)

// ProfileStats summarises a profile's practice activity.
type ProfileStats struct {
	TotalSessions  int64      `json:"total_sessions"`
	TotalEvents    int64      `json:"total_events"`
	AnswerEvents   int64      `json:"answer_events"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// AppendSessionEvent adds one entry to a session's log.
func (r *GORMRepository) AppendSessionEvent(ctx context.Context, event *models.SessionEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		slog.Error("Failed to append session event", "error", err, "session_id", event.SessionID)
		return fmt.Errorf("failed to append session event: %w", err)
	}

	slog.Info("Session event appended", "event_id", event.ID, "session_id", event.SessionID, "type", event.Type)
	return nil
}

// ListSessionEvents reads along by_session, oldest first. limit <= 0 means no limit.
func (r *GORMRepository) ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error) {
	var events []models.SessionEvent

	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		slog.Error("Failed to list session events", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to list session events: %w", err)
	}
	return events, nil
}

func (r *GORMRepository) AppendTranscriptChunk(ctx context.Context, chunk *models.TranscriptChunk) error {
	if err := r.db.WithContext(ctx).Create(chunk).Error; err != nil {
		slog.Error("Failed to append transcript chunk", "error", err, "session_id", chunk.SessionID)
		return fmt.Errorf("failed to append transcript chunk: %w", err)
	}
	return nil
}

func (r *GORMRepository) ListTranscriptChunks(ctx context.Context, sessionID string) ([]models.TranscriptChunk, error) {
	var chunks []models.TranscriptChunk
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&chunks).Error; err != nil {
		slog.Error("Failed to list transcript chunks", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to list transcript chunks: %w", err)
	}
	return chunks, nil
}

// GetProfileStats counts a profile's sessions and the events logged in them.
func (r *GORMRepository) GetProfileStats(ctx context.Context, profileID string) (*ProfileStats, error) {
	var stats ProfileStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.InterviewSession{}).
		Where("profile_id = ?", profileID).
		Count(&stats.TotalSessions).Error; err != nil {
		slog.Error("Failed to count sessions", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	sessions := db.Model(&models.InterviewSession{}).Select("id").Where("profile_id = ?", profileID)

	if err := db.Model(&models.SessionEvent{}).
		Where("session_id IN (?)", sessions).
		Count(&stats.TotalEvents).Error; err != nil {
		slog.Error("Failed to count session events", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to count session events: %w", err)
	}

	if err := db.Model(&models.SessionEvent{}).
		Where("session_id IN (?) AND type = ?", sessions, models.EventAnswer).
		Count(&stats.AnswerEvents).Error; err != nil {
		slog.Error("Failed to count answer events", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to count answer events: %w", err)
	}

	var last models.SessionEvent
	err := db.Where("session_id IN (?)", sessions).Order("created_at DESC").First(&last).Error
	switch {
	case err == nil:
		stats.LastActivityAt = &last.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		slog.Error("Failed to get last activity", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to get last activity: %w", err)
	}

	return &stats, nil
}
