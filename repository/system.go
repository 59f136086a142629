package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
)

// AppendAuditLog records action by actor. An empty actor is stored as the system actor.
func (r *GORMRepository) AppendAuditLog(ctx context.Context, actor, action string, details map[string]interface{}) error {
	if actor == "" {
		actor = models.ActorSystemName
	}
	entry := &models.AuditLog{Actor: &actor, Action: action}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.Error("Failed to append audit log", "error", err, "action", action)
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

func (r *GORMRepository) CreateSystemTask(ctx context.Context, task *models.SystemTask) error {
	if task.State == "" {
		task.State = models.TaskPending
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		slog.Error("Failed to create system task", "error", err, "kind", task.Kind)
		return fmt.Errorf("failed to create system task: %w", err)
	}
	return nil
}

// UpdateSystemTask moves a task to state, replacing its metadata when given.
func (r *GORMRepository) UpdateSystemTask(ctx context.Context, id, state string, metadata datatypes.JSON) error {
	values := map[string]interface{}{"state": state, "updated_at": now()}
	if metadata != nil {
		values["metadata"] = metadata
	}
	res := r.db.WithContext(ctx).Model(&models.SystemTask{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		slog.Error("Failed to update system task", "error", res.Error, "task_id", id)
		return fmt.Errorf("failed to update system task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GORMRepository) ListSystemTasks(ctx context.Context, kind string, limit int) ([]models.SystemTask, error) {
	var tasks []models.SystemTask
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tasks).Error; err != nil {
		slog.Error("Failed to list system tasks", "error", err, "kind", kind)
		return nil, fmt.Errorf("failed to list system tasks: %w", err)
	}
	return tasks, nil
}

// CreateAPIKey stores the masked form of rawKey. The raw key is not persisted.
func (r *GORMRepository) CreateAPIKey(ctx context.Context, profileID *string, kind, rawKey string, metadata datatypes.JSON) (*models.APIKey, error) {
	key := &models.APIKey{
		ProfileID: profileID,
		Kind:      kind,
		MaskedKey: models.MaskKey(rawKey),
		Metadata:  metadata,
	}
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		slog.Error("Failed to create api key", "error", err, "kind", kind)
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}
	return key, nil
}

func (r *GORMRepository) ListAPIKeys(ctx context.Context, profileID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		slog.Error("Failed to list api keys", "error", err, "profile_id", profileID)
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}
