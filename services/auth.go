package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krshsl/intervue/auth"
	"github.com/krshsl/intervue/models"
)

// ProfileStore is the part of the repository the auth callbacks touch.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// ProfileCallbacks creates and removes the profile that backs each auth user.
type ProfileCallbacks struct {
	profiles ProfileStore
	now      func() time.Time
}

func NewProfileCallbacks(profiles ProfileStore) *ProfileCallbacks {
	return &ProfileCallbacks{profiles: profiles, now: time.Now}
}

// OnCreateUser inserts one profile. Email is copied as given and the name
// defaults to "".
func (c *ProfileCallbacks) OnCreateUser(ctx context.Context, p auth.AuthProfile) (string, error) {
	profile := &models.Profile{
		Email:     p.Email,
		AvatarURL: p.Image,
		CreatedAt: c.now(),
	}
	if p.Name != nil {
		profile.FullName = *p.Name
	}

	if err := c.profiles.CreateProfile(ctx, profile); err != nil {
		return "", err
	}
	return profile.ID, nil
}

// OnDeleteUser removes the profile with exactly this id.
func (c *ProfileCallbacks) OnDeleteUser(ctx context.Context, profileID string) error {
	return c.profiles.DeleteProfile(ctx, profileID)
}

// CurrentUser is a profile overlaid with the auth record's metadata. Where
// both carry a field the auth value wins.
type CurrentUser struct {
	*models.Profile
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Image     *string   `json:"image,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthFunctions is the auth component plus the profile-aware queries.
type AuthFunctions struct {
	*auth.Component
	profiles ProfileStore
}

func NewAuthFunctions(component *auth.Component, profiles ProfileStore) *AuthFunctions {
	return &AuthFunctions{Component: component, profiles: profiles}
}

// GetCurrentUser returns nil when token does not authenticate.
func (f *AuthFunctions) GetCurrentUser(ctx context.Context, token string) (*CurrentUser, error) {
	user, err := f.GetAuthUser(ctx, token)
	if err != nil || user == nil {
		return nil, err
	}
	return f.mergeProfile(ctx, user)
}

// CurrentUserFor resolves an identity placed in the request context by the
// auth middleware.
func (f *AuthFunctions) CurrentUserFor(ctx context.Context, id *auth.Identity) (*CurrentUser, error) {
	user, err := f.LookupUser(ctx, id.AuthUserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return f.mergeProfile(ctx, user)
}

func (f *AuthFunctions) mergeProfile(ctx context.Context, user *models.AuthUser) (*CurrentUser, error) {
	profile, err := f.profiles.GetProfile(ctx, user.UserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		slog.Warn("Auth user has no profile", "auth_user_id", user.ID, "profile_id", user.UserID)
	}

	return &CurrentUser{
		Profile:   profile,
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		UserID:    user.UserID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}
