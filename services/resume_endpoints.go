package services

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/krshsl/intervue/models"
)

type ResumeRepository interface {
	CreateResume(ctx context.Context, resume *models.Resume) error
	GetResume(ctx context.Context, id, profileID string) (*models.Resume, error)
	ListResumesByProfile(ctx context.Context, profileID string) ([]models.Resume, error)
	MarkResumeDeleted(ctx context.Context, id, profileID string) error
	CreateResumeChunks(ctx context.Context, chunks []models.ResumeChunk) error
	ListResumeChunks(ctx context.Context, resumeID string) ([]models.ResumeChunk, error)
	ListResumeCritiques(ctx context.Context, resumeID string) ([]models.ResumeCritique, error)
}

// ObjectStore holds uploaded files.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type ResumeEndpoints struct {
	repo     ResumeRepository
	store    ObjectStore
	maxBytes int64
}

// ResumeView adds a short-lived download link to the stored row.
type ResumeView struct {
	models.Resume
	DownloadURL string `json:"download_url,omitempty"`
}

func NewResumeEndpoints(repo ResumeRepository, store ObjectStore, maxBytes int64) *ResumeEndpoints {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ResumeEndpoints{repo: repo, store: store, maxBytes: maxBytes}
}

func (e *ResumeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/resumes", func(r chi.Router) {
		r.Post("/", e.UploadHandler)
		r.Get("/", e.ListHandler)
		r.Get("/{id}", e.GetHandler)
		r.Delete("/{id}", e.DeleteHandler)
		r.Get("/{id}/file", e.DownloadHandler)
		r.Post("/{id}/chunks", e.AddChunksHandler)
	})
}

// UploadHandler takes a multipart form with a "file" part. The object key
// is the storage_url of the new row.
func (e *ResumeEndpoints) UploadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, e.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := path.Base(header.Filename)
	if filename == "." || filename == "/" {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	resume := &models.Resume{
		Base:      models.Base{ID: uuid.NewString()},
		ProfileID: id.ProfileID,
		Filename:  filename,
	}
	key := resume.ObjectKey()
	resume.StorageURL = key

	contentType := header.Header.Get("Content-Type")
	if err := e.store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, err, "Failed to store resume")
		return
	}

	if err := e.repo.CreateResume(r.Context(), resume); err != nil {
		if delErr := e.store.Delete(r.Context(), key); delErr != nil {
			slog.Error("Failed to remove orphaned upload", "error", delErr, "key", key)
		}
		writeError(w, err, "Failed to save resume")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"resume": e.view(r.Context(), *resume)})
	slog.Info("Resume uploaded", "resume_id", resume.ID, "profile_id", id.ProfileID, "size", header.Size)
}

func (e *ResumeEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resumes, err := e.repo.ListResumesByProfile(r.Context(), id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to list resumes")
		return
	}

	views := make([]ResumeView, 0, len(resumes))
	for _, resume := range resumes {
		views = append(views, e.view(r.Context(), resume))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resumes": views, "count": len(views)})
}

func (e *ResumeEndpoints) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resume, ok := e.ownedResume(w, r, id.ProfileID)
	if !ok {
		return
	}

	chunks, err := e.repo.ListResumeChunks(r.Context(), resume.ID)
	if err != nil {
		writeError(w, err, "Failed to get resume")
		return
	}
	critiques, err := e.repo.ListResumeCritiques(r.Context(), resume.ID)
	if err != nil {
		writeError(w, err, "Failed to get resume")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resume":    e.view(r.Context(), *resume),
		"chunks":    chunks,
		"critiques": critiques,
	})
}

// DeleteHandler only flags the row; the cleanup task removes it later.
func (e *ResumeEndpoints) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resumeID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := e.repo.MarkResumeDeleted(r.Context(), resumeID, id.ProfileID); err != nil {
		writeError(w, err, "Failed to delete resume")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadHandler streams the stored file through the API for clients that
// cannot follow a presigned link.
func (e *ResumeEndpoints) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resume, ok := e.ownedResume(w, r, id.ProfileID)
	if !ok {
		return
	}

	key := resume.ObjectKey()
	exists, err := e.store.Exists(r.Context(), key)
	if err != nil {
		writeError(w, err, "Failed to read resume file")
		return
	}
	if !exists {
		slog.Warn("Resume file missing from storage", "resume_id", resume.ID, "key", key)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	body, err := e.store.Download(r.Context(), key)
	if err != nil {
		writeError(w, err, "Failed to read resume file")
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(resume.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": resume.Filename}))
	if _, err := io.Copy(w, body); err != nil {
		slog.Error("Failed to stream resume file", "error", err, "resume_id", resume.ID)
	}
}

// AddChunksHandler stores the parsed, pre-split text of a resume.
func (e *ResumeEndpoints) AddChunksHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resume, ok := e.ownedResume(w, r, id.ProfileID)
	if !ok {
		return
	}

	var req AddChunksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		writeError(w, err, "Invalid chunks")
		return
	}

	chunks, err := resumeChunks(resume, req.Chunks)
	if err != nil {
		writeError(w, err, "Invalid chunks")
		return
	}
	if err := e.repo.CreateResumeChunks(r.Context(), chunks); err != nil {
		writeError(w, err, "Failed to save chunks")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
	slog.Info("Resume chunks stored", "resume_id", resume.ID, "count", len(chunks))
}

// ownedResume loads the {id} resume of profileID. Flagged rows read as missing.
func (e *ResumeEndpoints) ownedResume(w http.ResponseWriter, r *http.Request, profileID string) (*models.Resume, bool) {
	resumeID, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	resume, err := e.repo.GetResume(r.Context(), resumeID, profileID)
	if err != nil {
		writeError(w, err, "Failed to get resume")
		return nil, false
	}
	if resume.Deleted {
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, false
	}
	return resume, true
}

func (e *ResumeEndpoints) view(ctx context.Context, resume models.Resume) ResumeView {
	v := ResumeView{Resume: resume}
	u, err := e.store.PresignedURL(ctx, resume.ObjectKey())
	if err != nil {
		slog.Warn("Failed to presign resume", "error", err, "resume_id", resume.ID)
		return v
	}
	v.DownloadURL = u
	return v
}
