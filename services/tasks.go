package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
)

const (
	defaultTaskInterval = 10 * time.Minute
	defaultCleanupBatch = 100
)

type TaskRepository interface {
	CreateSystemTask(ctx context.Context, task *models.SystemTask) error
	UpdateSystemTask(ctx context.Context, id, state string, metadata datatypes.JSON) error
	ListSystemTasks(ctx context.Context, kind string, limit int) ([]models.SystemTask, error)
	ListDeletedResumes(ctx context.Context, limit int) ([]models.Resume, error)
	PurgeResume(ctx context.Context, id string) error
	DeleteExpiredAuthSessions(ctx context.Context, cutoff time.Time) (int64, error)
	AppendAuditLog(ctx context.Context, actor, action string, details map[string]interface{}) error
}

// ObjectRemover deletes stored files.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// CleanupResult is stored as the metadata of a cleanup task.
type CleanupResult struct {
	ResumesPurged   int    `json:"resumes_purged"`
	ResumesFailed   int    `json:"resumes_failed"`
	SessionsExpired int64  `json:"sessions_expired"`
	Error           string `json:"error,omitempty"`
}

// TaskRunner runs periodic maintenance and records each run as a system task.
type TaskRunner struct {
	repo     TaskRepository
	store    ObjectRemover
	interval time.Duration
	batch    int
	now      func() time.Time
}

// NewTaskRunner builds a runner. store may be nil when object storage is
// not configured; stored files are then left in place.
func NewTaskRunner(repo TaskRepository, store ObjectRemover, cfg TasksConfig) *TaskRunner {
	t := &TaskRunner{
		repo:     repo,
		store:    store,
		interval: cfg.Interval,
		batch:    cfg.CleanupBatch,
		now:      time.Now,
	}
	if t.interval <= 0 {
		t.interval = defaultTaskInterval
	}
	if t.batch <= 0 {
		t.batch = defaultCleanupBatch
	}
	return t
}

// Start runs cleanup on every tick until ctx is cancelled.
func (t *TaskRunner) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("Task runner started", "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Task runner stopped")
			return
		case <-ticker.C:
			if _, err := t.RunCleanup(ctx); err != nil {
				slog.Error("Cleanup task failed", "error", err)
			}
		}
	}
}

// RunCleanup purges soft-deleted resumes and expired auth sessions.
func (t *TaskRunner) RunCleanup(ctx context.Context) (*CleanupResult, error) {
	task := &models.SystemTask{Kind: models.TaskCleanup, State: models.TaskRunning}
	if err := t.repo.CreateSystemTask(ctx, task); err != nil {
		return nil, err
	}

	result := &CleanupResult{}
	runErr := t.cleanup(ctx, result)

	state := models.TaskCompleted
	if runErr != nil {
		state = models.TaskFailed
		result.Error = runErr.Error()
	}

	meta, err := json.Marshal(result)
	if err != nil {
		return result, fmt.Errorf("failed to encode task result: %w", err)
	}
	if err := t.repo.UpdateSystemTask(ctx, task.ID, state, datatypes.JSON(meta)); err != nil {
		slog.Error("Failed to record task state", "error", err, "task_id", task.ID)
	}

	if err := t.repo.AppendAuditLog(ctx, "", "task."+models.TaskCleanup, map[string]interface{}{
		"task_id":          task.ID,
		"state":            state,
		"resumes_purged":   result.ResumesPurged,
		"sessions_expired": result.SessionsExpired,
	}); err != nil {
		slog.Warn("Failed to audit cleanup task", "error", err, "task_id", task.ID)
	}

	slog.Info("Cleanup task finished",
		"task_id", task.ID,
		"state", state,
		"resumes_purged", result.ResumesPurged,
		"resumes_failed", result.ResumesFailed,
		"sessions_expired", result.SessionsExpired)
	return result, runErr
}

func (t *TaskRunner) cleanup(ctx context.Context, result *CleanupResult) error {
	resumes, err := t.repo.ListDeletedResumes(ctx, t.batch)
	if err != nil {
		return err
	}

	for _, resume := range resumes {
		if t.store != nil {
			if err := t.store.Delete(ctx, resume.ObjectKey()); err != nil {
				slog.Warn("Failed to delete resume object", "error", err, "resume_id", resume.ID)
				result.ResumesFailed++
				continue
			}
		}
		if err := t.repo.PurgeResume(ctx, resume.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			slog.Warn("Failed to purge resume", "error", err, "resume_id", resume.ID)
			result.ResumesFailed++
			continue
		}
		result.ResumesPurged++
	}

	n, err := t.repo.DeleteExpiredAuthSessions(ctx, t.now())
	if err != nil {
		return err
	}
	result.SessionsExpired = n
	return nil
}

// TasksHandler lists recent runs, optionally filtered by ?kind=.
func (t *TaskRunner) TasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := t.repo.ListSystemTasks(r.Context(), r.URL.Query().Get("kind"), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, err, "Failed to get tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}
