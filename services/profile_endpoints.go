package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krshsl/intervue/models"
	"github.com/krshsl/intervue/repository"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, update repository.ProfileUpdate) (*models.Profile, error)
	GetProfileStats(ctx context.Context, profileID string) (*repository.ProfileStats, error)
}

type ProfileEndpoints struct {
	repo ProfileRepository
}

type UpdateProfileRequest struct {
	FullName    *string         `json:"full_name,omitempty"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

func NewProfileEndpoints(repo ProfileRepository) *ProfileEndpoints {
	return &ProfileEndpoints{repo: repo}
}

func (e *ProfileEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", e.GetProfileHandler)
		r.Patch("/", e.UpdateProfileHandler)
		r.Get("/stats", e.GetStatsHandler)
	})
}

func (e *ProfileEndpoints) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	profile, err := e.repo.GetProfile(r.Context(), id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (e *ProfileEndpoints) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	update := repository.ProfileUpdate{FullName: req.FullName, AvatarURL: req.AvatarURL}
	if len(req.Preferences) > 0 {
		if !json.Valid(req.Preferences) {
			http.Error(w, "Invalid preferences", http.StatusBadRequest)
			return
		}
		update.Preferences = req.Preferences
	}

	profile, err := e.repo.UpdateProfile(r.Context(), id.ProfileID, update)
	if err != nil {
		writeError(w, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (e *ProfileEndpoints) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	stats, err := e.repo.GetProfileStats(r.Context(), id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
