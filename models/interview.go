package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Known interview stages. Stage is stored as a free-form string and no
// transition rules are enforced; these values are a vocabulary, not a state machine.
const (
	StageCreated    = "created"
	StageIntro      = "intro"
	StageBehavioral = "behavioral"
	StageTechnical  = "technical"
	StageWrapup     = "wrapup"
	StageCompleted  = "completed"
)

// InterviewSession is one interview-practice interaction and its current stage.
type InterviewSession struct {
	Base
	ProfileID      string         `gorm:"type:uuid;not null" json:"profile_id"`
	CompanyID      *string        `gorm:"type:uuid" json:"company_id,omitempty"`
	JobPostingID   *string        `gorm:"type:uuid" json:"job_posting_id,omitempty"`
	RoleTitle      *string        `json:"role_title,omitempty"`
	Stage          string         `gorm:"not null" json:"stage"`
	Config         datatypes.JSON `gorm:"type:jsonb" json:"config,omitempty"` // difficulty, voice, timers
	HistorySummary *string        `gorm:"type:text" json:"history_summary,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      *time.Time     `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// Session event types and actors used by the API.
const (
	EventQuestion   = "question"
	EventAnswer     = "answer"
	EventHint       = "hint"
	EventEvaluation = "evaluation"

	ActorInterviewer = "interviewer"
	ActorCandidate   = "candidate"
	ActorSystem      = "system"
)

// SessionEvent is one entry of a session's chronological log.
type SessionEvent struct {
	Base
	SessionID string         `gorm:"type:uuid;not null" json:"session_id"`
	Type      string         `gorm:"not null" json:"type"`
	Actor     string         `gorm:"not null" json:"actor"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"` // text, metadata, score, etc.
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (SessionEvent) TableName() string {
	return "session_events"
}

// TranscriptChunk is a piece of speech recognised during a session.
type TranscriptChunk struct {
	Base
	SessionID string           `gorm:"type:uuid;not null" json:"session_id"`
	Speaker   string           `gorm:"not null" json:"speaker"` // candidate|interviewer
	Text      string           `gorm:"type:text;not null" json:"text"`
	StartMs   *int64           `json:"start_ms,omitempty"`
	EndMs     *int64           `json:"end_ms,omitempty"`
	Embedding *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
}

func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}

func (c *TranscriptChunk) BeforeSave(tx *gorm.DB) error {
	return ValidateEmbedding(c.Embedding)
}

// QuestionInstance is a question as it was asked in a given session.
type QuestionInstance struct {
	Base
	SessionID         string         `gorm:"type:uuid;not null" json:"session_id"`
	QuestionID        *string        `gorm:"type:uuid" json:"question_id,omitempty"`
	GeneratedQuestion string         `gorm:"type:text;not null" json:"generated_question"`
	IdealPoints       pq.StringArray `gorm:"type:text[]" json:"ideal_points,omitempty"`
	Difficulty        *string        `json:"difficulty,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
}

func (QuestionInstance) TableName() string {
	return "question_instances"
}

// Evaluation stores rubric scores for a session or a single question instance.
type Evaluation struct {
	Base
	SessionID          string         `gorm:"type:uuid;not null" json:"session_id"`
	QuestionInstanceID *string        `gorm:"type:uuid" json:"question_instance_id,omitempty"`
	Scorer             *string        `json:"scorer,omitempty"` // "auto" or reviewer id
	Rubric             datatypes.JSON `gorm:"type:jsonb;not null" json:"rubric"`
	Score              float64        `gorm:"not null" json:"score"`
	Notes              *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// FeedbackReport is the post-session summary shown to the candidate.
type FeedbackReport struct {
	Base
	SessionID    string         `gorm:"type:uuid;not null" json:"session_id"`
	ProfileID    string         `gorm:"type:uuid;not null" json:"profile_id"`
	OverallScore *float64       `json:"overall_score,omitempty"`
	Summary      *string        `gorm:"type:text" json:"summary,omitempty"`
	Suggestions  pq.StringArray `gorm:"type:text[]" json:"suggestions,omitempty"`
	Resources    datatypes.JSON `gorm:"type:jsonb" json:"resources,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (FeedbackReport) TableName() string {
	return "feedback_reports"
}
