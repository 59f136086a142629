package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
)

type SessionRepository interface {
	CreateInterviewSession(ctx context.Context, session *models.InterviewSession) error
	GetInterviewSession(ctx context.Context, id, profileID string) (*models.InterviewSession, error)
	ListInterviewSessions(ctx context.Context, profileID string, limit, offset int) ([]models.InterviewSession, error)
	UpdateSessionStage(ctx context.Context, id, profileID, stage string) (*models.InterviewSession, error)
	AppendSessionEvent(ctx context.Context, event *models.SessionEvent) error
	ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]models.SessionEvent, error)
	AppendTranscriptChunk(ctx context.Context, chunk *models.TranscriptChunk) error
	ListTranscriptChunks(ctx context.Context, sessionID string) ([]models.TranscriptChunk, error)
	ListQuestionInstances(ctx context.Context, sessionID string) ([]models.QuestionInstance, error)
	ListEvaluations(ctx context.Context, sessionID string) ([]models.Evaluation, error)
	ListFeedbackReports(ctx context.Context, profileID string) ([]models.FeedbackReport, error)
}

// Publisher pushes live updates to subscribers of a session.
type Publisher interface {
	Publish(sessionID, msgType string, data interface{}) error
}

// Message types pushed to session subscribers.
const (
	MessageStageChanged = "stage_changed"
	MessageSessionEvent = "session_event"
	MessageTranscript   = "transcript"
)

type SessionEndpoints struct {
	repo SessionRepository
	hub  Publisher
}

func NewSessionEndpoints(repo SessionRepository, hub Publisher) *SessionEndpoints {
	return &SessionEndpoints{repo: repo, hub: hub}
}

type CreateSessionRequest struct {
	CompanyID    *string         `json:"company_id,omitempty"`
	JobPostingID *string         `json:"job_posting_id,omitempty"`
	RoleTitle    *string         `json:"role_title,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
}

type UpdateStageRequest struct {
	Stage string `json:"stage"`
}

type AppendEventRequest struct {
	Type    string          `json:"type"`
	Actor   string          `json:"actor"`
	Payload json.RawMessage `json:"payload"`
}

type AppendTranscriptRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMs *int64 `json:"start_ms,omitempty"`
	EndMs   *int64 `json:"end_ms,omitempty"`
}

type GetSessionsResponse struct {
	Sessions []models.InterviewSession `json:"sessions"`
	Count    int                       `json:"count"`
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", e.CreateSessionHandler)
		r.Get("/", e.GetSessionsHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Patch("/{id}/stage", e.UpdateStageHandler)
		r.Post("/{id}/events", e.AppendEventHandler)
		r.Get("/{id}/events", e.GetEventsHandler)
		r.Post("/{id}/transcript", e.AppendTranscriptHandler)
		r.Get("/{id}/evaluations", e.GetEvaluationsHandler)
	})

	r.Get("/feedback", e.GetFeedbackHandler)
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validRefs(req.CompanyID, req.JobPostingID) {
		http.Error(w, "Invalid company or job posting id", http.StatusBadRequest)
		return
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		http.Error(w, "Invalid config", http.StatusBadRequest)
		return
	}

	session := models.InterviewSession{
		ProfileID:    id.ProfileID,
		CompanyID:    req.CompanyID,
		JobPostingID: req.JobPostingID,
		RoleTitle:    req.RoleTitle,
		Config:       datatypes.JSON(req.Config),
	}
	if err := e.repo.CreateInterviewSession(r.Context(), &session); err != nil {
		writeError(w, err, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
		"message": "Session created successfully",
	})
	slog.Info("Interview session created", "session_id", session.ID, "profile_id", id.ProfileID)
}

func (e *SessionEndpoints) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	sessions, err := e.repo.ListInterviewSessions(r.Context(), id.ProfileID, limit, offset)
	if err != nil {
		writeError(w, err, "Failed to get sessions")
		return
	}

	writeJSON(w, http.StatusOK, GetSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// GetSessionHandler returns the session with its asked questions and transcript.
func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := e.ownedSession(w, r)
	if !ok {
		return
	}

	questions, err := e.repo.ListQuestionInstances(r.Context(), session.ID)
	if err != nil {
		writeError(w, err, "Failed to get session")
		return
	}
	transcript, err := e.repo.ListTranscriptChunks(r.Context(), session.ID)
	if err != nil {
		writeError(w, err, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":    session,
		"questions":  questions,
		"transcript": transcript,
	})
}

func (e *SessionEndpoints) UpdateStageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stage := strings.TrimSpace(req.Stage)
	if stage == "" {
		http.Error(w, "Stage is required", http.StatusBadRequest)
		return
	}

	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	session, err := e.repo.UpdateSessionStage(r.Context(), sessionID, id.ProfileID, stage)
	if err != nil {
		writeError(w, err, "Failed to update stage")
		return
	}

	e.publish(session.ID, MessageStageChanged, map[string]interface{}{
		"stage":    session.Stage,
		"ended_at": session.EndedAt,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

func (e *SessionEndpoints) AppendEventHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := e.ownedSession(w, r)
	if !ok {
		return
	}

	var req AppendEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Type == "" {
		http.Error(w, "Event type is required", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		req.Actor = models.ActorCandidate
	}
	payload := req.Payload
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	} else if !json.Valid(payload) {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event := models.SessionEvent{
		SessionID: session.ID,
		Type:      req.Type,
		Actor:     req.Actor,
		Payload:   datatypes.JSON(payload),
	}
	if err := e.repo.AppendSessionEvent(r.Context(), &event); err != nil {
		writeError(w, err, "Failed to append event")
		return
	}

	e.publish(session.ID, MessageSessionEvent, event)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"event": event})
}

func (e *SessionEndpoints) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := e.ownedSession(w, r)
	if !ok {
		return
	}

	events, err := e.repo.ListSessionEvents(r.Context(), session.ID, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err, "Failed to get events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
}

func (e *SessionEndpoints) AppendTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := e.ownedSession(w, r)
	if !ok {
		return
	}

	var req AppendTranscriptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" || req.Speaker == "" {
		http.Error(w, "Speaker and text are required", http.StatusBadRequest)
		return
	}

	chunk := models.TranscriptChunk{
		SessionID: session.ID,
		Speaker:   req.Speaker,
		Text:      req.Text,
		StartMs:   req.StartMs,
		EndMs:     req.EndMs,
	}
	if err := e.repo.AppendTranscriptChunk(r.Context(), &chunk); err != nil {
		writeError(w, err, "Failed to append transcript")
		return
	}

	e.publish(session.ID, MessageTranscript, chunk)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"chunk": chunk})
}

func (e *SessionEndpoints) GetEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := e.ownedSession(w, r)
	if !ok {
		return
	}

	evaluations, err := e.repo.ListEvaluations(r.Context(), session.ID)
	if err != nil {
		writeError(w, err, "Failed to get evaluations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"evaluations": evaluations, "count": len(evaluations)})
}

func (e *SessionEndpoints) GetFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reports, err := e.repo.ListFeedbackReports(r.Context(), id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to get feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
}

// ownedSession loads the {id} session, answering 404 when it belongs to
// someone else.
func (e *SessionEndpoints) ownedSession(w http.ResponseWriter, r *http.Request) (*models.InterviewSession, bool) {
	id, ok := identity(w, r)
	if !ok {
		return nil, false
	}

	sessionID, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	session, err := e.repo.GetInterviewSession(r.Context(), sessionID, id.ProfileID)
	if err != nil {
		writeError(w, err, "Failed to get session")
		return nil, false
	}
	return session, true
}

func (e *SessionEndpoints) publish(sessionID, msgType string, data interface{}) {
	if e.hub == nil {
		return
	}
	if err := e.hub.Publish(sessionID, msgType, data); err != nil {
		slog.Warn("Failed to publish session update", "error", err, "session_id", sessionID, "type", msgType)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
