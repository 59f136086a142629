package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/krshsl/intervue/auth"
	"github.com/krshsl/intervue/models"
)

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailTaken):
		http.Error(w, "Email already registered", http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, models.ErrEmbeddingDimensions), errors.Is(err, errBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// identity fetches the caller placed in the context by the auth middleware.
func identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID returns the {id} route parameter. Ids that are not uuids cannot
// name a row, so they get a 404 before reaching the database.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !isUUID(id) {
		http.Error(w, "Not found", http.StatusNotFound)
		return "", false
	}
	return id, true
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// validRefs reports whether every non-nil reference is a uuid.
func validRefs(refs ...*string) bool {
	for _, ref := range refs {
		if ref != nil && !isUUID(*ref) {
			return false
		}
	}
	return true
}
