package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
)

type CatalogRepository interface {
	ListQuestionsByTag(ctx context.Context, tag string) ([]models.Question, error)
	ListResourcesByTag(ctx context.Context, tag string) ([]models.Resource, error)
	GetCompanyByName(ctx context.Context, name string) (*models.Company, error)
	ListJobPostingsByCompany(ctx context.Context, companyID string) ([]models.JobPosting, error)
	GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error)
	CreateCompanyDocChunks(ctx context.Context, chunks []models.CompanyDocChunk) error
	ListCompanyDocChunks(ctx context.Context, jobPostingID string) ([]models.CompanyDocChunk, error)
	SearchResumeChunks(ctx context.Context, profileID string, query []float32, k int) ([]models.ResumeChunk, error)
	SearchCompanyDocChunks(ctx context.Context, companyID string, query []float32, k int) ([]models.CompanyDocChunk, error)
	CreateAPIKey(ctx context.Context, profileID *string, kind, rawKey string, metadata datatypes.JSON) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, profileID string) ([]models.APIKey, error)
}

// CatalogEndpoints serves shared content, retrieval and key bookkeeping.
type CatalogEndpoints struct {
	repo CatalogRepository
}

func NewCatalogEndpoints(repo CatalogRepository) *CatalogEndpoints {
	return &CatalogEndpoints{repo: repo}
}

type SearchRequest struct {
	Embedding []float32 `json:"embedding"`
	K         int       `json:"k"`
	CompanyID string    `json:"company_id,omitempty"`
}

type CreateAPIKeyRequest struct {
	Kind     string          `json:"kind"`
	Key      string          `json:"key"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// RegisterRoutes adds the public catalog reads.
func (e *CatalogEndpoints) RegisterRoutes(r chi.Router) {
	r.Get("/questions", e.GetQuestionsHandler)
	r.Get("/resources", e.GetResourcesHandler)
}

// RegisterProtectedRoutes adds the routes that need a signed-in caller.
func (e *CatalogEndpoints) RegisterProtectedRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", e.GetCompanyHandler)
		r.Get("/{id}/job-postings", e.GetJobPostingsHandler)
	})
	r.Get("/job-postings/{id}/chunks", e.GetPostingChunksHandler)
	r.Post("/job-postings/{id}/chunks", e.AddPostingChunksHandler)

	r.Route("/search", func(r chi.Router) {
		r.Post("/resume-chunks", e.SearchResumeHandler)
		r.Post("/company-chunks", e.SearchCompanyHandler)
	})

	r.Route("/api-keys", func(r chi.Router) {
		r.Post("/", e.CreateAPIKeyHandler)
		r.Get("/", e.GetAPIKeysHandler)
	})
}

func (e *CatalogEndpoints) GetQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := e.repo.ListQuestionsByTag(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, err, "Failed to get questions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions, "count": len(questions)})
}

func (e *CatalogEndpoints) GetResourcesHandler(w http.ResponseWriter, r *http.Request) {
	resources, err := e.repo.ListResourcesByTag(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, err, "Failed to get resources")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": resources, "count": len(resources)})
}

// GetCompanyHandler looks a company up by its exact ?name=.
func (e *CatalogEndpoints) GetCompanyHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	company, err := e.repo.GetCompanyByName(r.Context(), name)
	if err != nil {
		writeError(w, err, "Failed to get company")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"company": company})
}

func (e *CatalogEndpoints) GetJobPostingsHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r)
	if !ok {
		return
	}

	postings, err := e.repo.ListJobPostingsByCompany(r.Context(), companyID)
	if err != nil {
		writeError(w, err, "Failed to get job postings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job_postings": postings, "count": len(postings)})
}

func (e *CatalogEndpoints) GetPostingChunksHandler(w http.ResponseWriter, r *http.Request) {
	postingID, ok := pathID(w, r)
	if !ok {
		return
	}

	chunks, err := e.repo.ListCompanyDocChunks(r.Context(), postingID)
	if err != nil {
		writeError(w, err, "Failed to get chunks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
}

// AddPostingChunksHandler stores the split text of a job posting. Chunks
// inherit the posting's company so company search can find them.
func (e *CatalogEndpoints) AddPostingChunksHandler(w http.ResponseWriter, r *http.Request) {
	postingID, ok := pathID(w, r)
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

	posting, err := e.repo.GetJobPosting(r.Context(), postingID)
	if err != nil {
		writeError(w, err, "Failed to get job posting")
		return
	}

	companyID := posting.CompanyID
	chunks, err := companyDocChunks(posting.ID, &companyID, req.Chunks)
	if err != nil {
		writeError(w, err, "Invalid chunks")
		return
	}
	if err := e.repo.CreateCompanyDocChunks(r.Context(), chunks); err != nil {
		writeError(w, err, "Failed to save chunks")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
	slog.Info("Job posting chunks stored", "job_posting_id", posting.ID, "count", len(chunks))
}

// SearchResumeHandler ranks the caller's own resume chunks against a
// caller-supplied embedding.
func (e *CatalogEndpoints) SearchResumeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	chunks, err := e.repo.SearchResumeChunks(r.Context(), id.ProfileID, req.Embedding, req.K)
	if err != nil {
		writeError(w, err, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
}

func (e *CatalogEndpoints) SearchCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.CompanyID != "" && !isUUID(req.CompanyID) {
		http.Error(w, "Invalid company id", http.StatusBadRequest)
		return
	}

	chunks, err := e.repo.SearchCompanyDocChunks(r.Context(), req.CompanyID, req.Embedding, req.K)
	if err != nil {
		writeError(w, err, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
}

// CreateAPIKeyHandler records a key for the caller. Only the masked form
// is stored and echoed back.
func (e *CatalogEndpoints) CreateAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Kind == "" || req.Key == "" {
		http.Error(w, "Kind and key are required", http.StatusBadRequest)
		return
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		http.Error(w, "Invalid metadata", http.StatusBadRequest)
		return
	}

	profileID := id.ProfileID
	key, err := e.repo.CreateAPIKey(r.Context(), &profileID, req.Kind, req.Key, datatypes.JSON(req.Metadata))
	if err != nil {
		writeError(w, err, "Failed to save api key")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"api_key": key})
}

func (e *CatalogEndpoints) GetAPIKeysHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	keys, err := e.repo.ListAPIKeys(r.Context(), id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to get api keys")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"api_keys": keys, "count": len(keys)})
}
