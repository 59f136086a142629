package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/krshsl/intervue/models"
	"github.com/krshsl/intervue/repository"
)

// memRepo keeps just enough state in maps to drive the handlers.
type memRepo struct {
	mu sync.Mutex

	profiles  map[string]*models.Profile
	authUsers map[string]*models.AuthUser
	sessions  map[string]*models.AuthSession

	resumes   map[string]*models.Resume
	purged    []string
	interview map[string]*models.InterviewSession
	events    []models.SessionEvent
	chunks    []models.TranscriptChunk
	questions []models.Question
	resources []models.Resource
	companies []models.Company
	postings  []models.JobPosting
	resumeCh  []models.ResumeChunk
	docCh     []models.CompanyDocChunk
	apiKeys   []models.APIKey
	tasks     map[string]*models.SystemTask
	audits    []string

	expiredSessions int64
	failPurge       bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		profiles:  map[string]*models.Profile{},
		authUsers: map[string]*models.AuthUser{},
		sessions:  map[string]*models.AuthSession{},
		resumes:   map[string]*models.Resume{},
		interview: map[string]*models.InterviewSession{},
		tasks:     map[string]*models.SystemTask{},
	}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Profiles

func (m *memRepo) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&p.ID)
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memRepo) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) UpdateProfile(_ context.Context, id string, u repository.ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.AvatarURL != nil {
		p.AvatarURL = u.AvatarURL
	}
	if u.Preferences != nil {
		p.Preferences = datatypes.JSON(u.Preferences)
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) DeleteProfile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

func (m *memRepo) GetProfileStats(_ context.Context, profileID string) (*repository.ProfileStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repository.ProfileStats{}
	for _, s := range m.interview {
		if s.ProfileID == profileID {
			stats.TotalSessions++
		}
	}
	return stats, nil
}

// Auth store

func (m *memRepo) CreateAuthUser(_ context.Context, u *models.AuthUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&u.ID)
	cp := *u
	m.authUsers[u.ID] = &cp
	return nil
}

func (m *memRepo) GetAuthUser(_ context.Context, id string) (*models.AuthUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.authUsers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetAuthUserByEmail(_ context.Context, email string) (*models.AuthUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.authUsers {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) SaveAuthUser(_ context.Context, u *models.AuthUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.authUsers[u.ID] = &cp
	return nil
}

func (m *memRepo) DeleteAuthUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.authUsers[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.authUsers, id)
	return nil
}

func (m *memRepo) CreateAuthSession(_ context.Context, s *models.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.TokenHash] = s
	return nil
}

func (m *memRepo) GetAuthSessionByTokenHash(_ context.Context, hash string) (*models.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[hash]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) DeleteAuthSession(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, hash)
	return nil
}

func (m *memRepo) DeleteAuthSessionsForUser(_ context.Context, authUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.sessions {
		if s.AuthUserID == authUserID {
			delete(m.sessions, k)
		}
	}
	return nil
}

func (m *memRepo) DeleteExpiredAuthSessions(_ context.Context, _ time.Time) (int64, error) {
	return m.expiredSessions, nil
}

func (m *memRepo) AppendAuditLog(_ context.Context, _, action string, _ map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, action)
	return nil
}

// Resumes

func (m *memRepo) CreateResume(_ context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&r.ID)
	cp := *r
	m.resumes[r.ID] = &cp
	return nil
}

func (m *memRepo) GetResume(_ context.Context, id, profileID string) (*models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.ProfileID != profileID {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) ListResumesByProfile(_ context.Context, profileID string) ([]models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resume
	for _, r := range m.resumes {
		if r.ProfileID == profileID && !r.Deleted {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) MarkResumeDeleted(_ context.Context, id, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.ProfileID != profileID {
		return models.ErrNotFound
	}
	r.Deleted = true
	return nil
}

func (m *memRepo) ListDeletedResumes(_ context.Context, limit int) ([]models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resume
	for _, r := range m.resumes {
		if r.Deleted && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) PurgeResume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPurge {
		return errors.New("purge failed")
	}
	delete(m.resumes, id)
	m.purged = append(m.purged, id)
	return nil
}

func (m *memRepo) CreateResumeChunks(_ context.Context, chunks []models.ResumeChunk) error {
	for _, c := range chunks {
		if err := models.ValidateEmbedding(c.Embedding); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		newID(&c.ID)
		m.resumeCh = append(m.resumeCh, c)
	}
	return nil
}

func (m *memRepo) ListResumeChunks(_ context.Context, resumeID string) ([]models.ResumeChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ResumeChunk
	for _, c := range m.resumeCh {
		if c.ResumeID == resumeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) ListResumeCritiques(context.Context, string) ([]models.ResumeCritique, error) {
	return nil, nil
}

// Interview sessions

func (m *memRepo) CreateInterviewSession(_ context.Context, s *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&s.ID)
	if s.Stage == "" {
		s.Stage = models.StageCreated
	}
	cp := *s
	m.interview[s.ID] = &cp
	return nil
}

func (m *memRepo) GetInterviewSession(_ context.Context, id, profileID string) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.interview[id]
	if !ok || s.ProfileID != profileID {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) ListInterviewSessions(_ context.Context, profileID string, _, _ int) ([]models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InterviewSession
	for _, s := range m.interview {
		if s.ProfileID == profileID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateSessionStage(_ context.Context, id, profileID, stage string) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.interview[id]
	if !ok || s.ProfileID != profileID {
		return nil, models.ErrNotFound
	}
	s.Stage = stage
	if stage == models.StageCompleted {
		t := time.Now()
		s.EndedAt = &t
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) AppendSessionEvent(_ context.Context, e *models.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&e.ID)
	m.events = append(m.events, *e)
	return nil
}

func (m *memRepo) ListSessionEvents(_ context.Context, sessionID string, _ int) ([]models.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SessionEvent
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) AppendTranscriptChunk(_ context.Context, c *models.TranscriptChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&c.ID)
	m.chunks = append(m.chunks, *c)
	return nil
}

func (m *memRepo) ListTranscriptChunks(context.Context, string) ([]models.TranscriptChunk, error) {
	return nil, nil
}

func (m *memRepo) ListQuestionInstances(context.Context, string) ([]models.QuestionInstance, error) {
	return nil, nil
}

func (m *memRepo) ListEvaluations(context.Context, string) ([]models.Evaluation, error) {
	return nil, nil
}

func (m *memRepo) ListFeedbackReports(context.Context, string) ([]models.FeedbackReport, error) {
	return nil, nil
}

// Catalog

func (m *memRepo) ListQuestionsByTag(_ context.Context, tag string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Question
	for _, q := range m.questions {
		if tag == "" || contains(q.Tags, tag) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memRepo) GetQuestionByTitle(_ context.Context, title string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if q.Title == title {
			cp := q
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) CreateQuestion(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&q.ID)
	m.questions = append(m.questions, *q)
	return nil
}

func (m *memRepo) ListResourcesByTag(_ context.Context, tag string) ([]models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resource
	for _, r := range m.resources {
		if tag == "" || contains(r.Tags, tag) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetResourceByURL(_ context.Context, url string) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.resources {
		if r.URL == url {
			cp := r
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) CreateResource(_ context.Context, r *models.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&r.ID)
	m.resources = append(m.resources, *r)
	return nil
}

func (m *memRepo) GetCompanyByName(_ context.Context, name string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Name == name {
			cp := c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) CreateCompany(_ context.Context, c *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&c.ID)
	m.companies = append(m.companies, *c)
	return nil
}

func (m *memRepo) CreateJobPosting(_ context.Context, p *models.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&p.ID)
	m.postings = append(m.postings, *p)
	return nil
}

func (m *memRepo) ListJobPostingsByCompany(_ context.Context, companyID string) ([]models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.JobPosting
	for _, p := range m.postings {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) GetJobPosting(_ context.Context, id string) (*models.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.postings {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) CreateCompanyDocChunks(_ context.Context, chunks []models.CompanyDocChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		newID(&c.ID)
		m.docCh = append(m.docCh, c)
	}
	return nil
}

func (m *memRepo) ListCompanyDocChunks(_ context.Context, postingID string) ([]models.CompanyDocChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CompanyDocChunk
	for _, c := range m.docCh {
		if c.JobPostingID == postingID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) SearchResumeChunks(_ context.Context, _ string, query []float32, _ int) ([]models.ResumeChunk, error) {
	if len(query) != models.EmbeddingDimensions {
		return nil, models.ErrEmbeddingDimensions
	}
	return nil, nil
}

func (m *memRepo) SearchCompanyDocChunks(_ context.Context, _ string, query []float32, _ int) ([]models.CompanyDocChunk, error) {
	if len(query) != models.EmbeddingDimensions {
		return nil, models.ErrEmbeddingDimensions
	}
	return nil, nil
}

func (m *memRepo) CreateAPIKey(_ context.Context, profileID *string, kind, rawKey string, metadata datatypes.JSON) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.APIKey{ProfileID: profileID, Kind: kind, MaskedKey: models.MaskKey(rawKey), Metadata: metadata}
	newID(&key.ID)
	m.apiKeys = append(m.apiKeys, key)
	return &key, nil
}

func (m *memRepo) ListAPIKeys(context.Context, string) ([]models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.APIKey(nil), m.apiKeys...), nil
}

// System tasks

func (m *memRepo) CreateSystemTask(_ context.Context, t *models.SystemTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&t.ID)
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memRepo) UpdateSystemTask(_ context.Context, id, state string, metadata datatypes.JSON) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.ErrNotFound
	}
	t.State = state
	t.Metadata = metadata
	return nil
}

func (m *memRepo) ListSystemTasks(context.Context, string, int) ([]models.SystemTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SystemTask
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// memStore is an in-memory object store.
type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.failPut {
		return errors.New("upload failed")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memStore) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + strings.TrimPrefix(key, "/") + "?sig=1", nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	if s.failDelete {
		return errors.New("delete failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type published struct {
	sessionID string
	msgType   string
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) Publish(sessionID, msgType string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{sessionID: sessionID, msgType: msgType})
	return nil
}
