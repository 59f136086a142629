package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krshsl/intervue/models"
)

// Auth user and session storage used by the auth component.

func (r *GORMRepository) CreateAuthUser(ctx context.Context, user *models.AuthUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if err = duplicate(err); errors.Is(err, models.ErrDuplicate) {
			return err
		}
		slog.Error("Failed to create auth user", "error", err)
		return fmt.Errorf("failed to create auth user: %w", err)
	}
	return nil
}

func (r *GORMRepository) GetAuthUser(ctx context.Context, id string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get auth user", "error", err, "auth_user_id", id)
		return nil, fmt.Errorf("failed to get auth user: %w", err)
	}
	return &user, nil
}

func (r *GORMRepository) GetAuthUserByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get auth user by email", "error", err)
		return nil, fmt.Errorf("failed to get auth user by email: %w", err)
	}
	return &user, nil
}

func (r *GORMRepository) SaveAuthUser(ctx context.Context, user *models.AuthUser) error {
	user.UpdatedAt = now()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if err = duplicate(err); errors.Is(err, models.ErrDuplicate) {
			return err
		}
		slog.Error("Failed to save auth user", "error", err, "auth_user_id", user.ID)
		return fmt.Errorf("failed to save auth user: %w", err)
	}
	return nil
}

func (r *GORMRepository) DeleteAuthUser(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AuthUser{})
	if res.Error != nil {
		slog.Error("Failed to delete auth user", "error", res.Error, "auth_user_id", id)
		return fmt.Errorf("failed to delete auth user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GORMRepository) CreateAuthSession(ctx context.Context, session *models.AuthSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create auth session", "error", err, "auth_user_id", session.AuthUserID)
		return fmt.Errorf("failed to create auth session: %w", err)
	}
	return nil
}

// GetAuthSessionByTokenHash returns the unexpired session for tokenHash.
func (r *GORMRepository) GetAuthSessionByTokenHash(ctx context.Context, tokenHash string) (*models.AuthSession, error) {
	var session models.AuthSession
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, now()).
		First(&session).Error
	if err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get auth session", "error", err)
		return nil, fmt.Errorf("failed to get auth session: %w", err)
	}
	return &session, nil
}

func (r *GORMRepository) DeleteAuthSession(ctx context.Context, tokenHash string) error {
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.AuthSession{}).Error; err != nil {
		slog.Error("Failed to delete auth session", "error", err)
		return fmt.Errorf("failed to delete auth session: %w", err)
	}
	return nil
}

func (r *GORMRepository) DeleteAuthSessionsForUser(ctx context.Context, authUserID string) error {
	if err := r.db.WithContext(ctx).Where("auth_user_id = ?", authUserID).Delete(&models.AuthSession{}).Error; err != nil {
		slog.Error("Failed to delete auth sessions", "error", err, "auth_user_id", authUserID)
		return fmt.Errorf("failed to delete auth sessions: %w", err)
	}
	return nil
}

// DeleteExpiredAuthSessions removes sessions that expired before cutoff.
func (r *GORMRepository) DeleteExpiredAuthSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.AuthSession{})
	if res.Error != nil {
		slog.Error("Failed to delete expired auth sessions", "error", res.Error)
		return 0, fmt.Errorf("failed to delete expired auth sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
