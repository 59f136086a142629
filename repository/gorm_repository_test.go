package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/krshsl/intervue/models"
)

func newMockRepository(t *testing.T) (*GORMRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := OpenConn(conn, Options{})
	require.NoError(t, err)

	return NewGORMRepository(db), mock
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected logger.LogLevel
	}{
		{"info", logger.Info},
		{"WARN", logger.Warn},
		{"error", logger.Error},
		{"", logger.Silent},
		{"bogus", logger.Silent},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}

func TestCreateProfile(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	profile := &models.Profile{Email: "ada@example.com"}
	require.NoError(t, repo.CreateProfile(context.Background(), profile))

	assert.NotEmpty(t, profile.ID)
	assert.False(t, profile.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.CreateProfile(context.Background(), &models.Profile{Email: "ada@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create profile")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	profile, err := repo.GetProfile(context.Background(), "missing")
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileByEmail(t *testing.T) {
	repo, mock := newMockRepository(t)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "created_at"}).
			AddRow("p1", "Ada", "ada@example.com", created))

	profile, err := repo.GetProfileByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", profile.ID)
	assert.Equal(t, "Ada", profile.FullName)
	assert.Equal(t, created, profile.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	repo, mock := newMockRepository(t)

	name := "Ada Lovelace"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email"}).
			AddRow("p1", name, "ada@example.com"))

	profile, err := repo.UpdateProfile(context.Background(), "p1", ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, profile.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateProfile(context.Background(), "missing", ProfileUpdate{})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProfile(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "removes the matching row", affected: 1},
		{name: "missing id", affected: 0, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "profiles" WHERE id = $1`)).
				WithArgs("p1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.DeleteProfile(context.Background(), "p1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMarkResumeDeletedMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "resumes" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkResumeDeleted(context.Background(), "r1", "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeResumeDeletesChildrenFirst(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "resume_chunks" WHERE resume_id = $1`)).
		WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "resume_critiques" WHERE resume_id = $1`)).
		WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "resumes" WHERE id = $1`)).
		WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.PurgeResume(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInterviewSessionDefaultsStage(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "interview_sessions"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.InterviewSession{ProfileID: "p1"}
	require.NoError(t, repo.CreateInterviewSession(context.Background(), session))
	assert.Equal(t, models.StageCreated, session.Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSessionStageAcceptsAnyString(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "interview_sessions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "interview_sessions" WHERE id = $1 AND profile_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "stage"}).
			AddRow("s1", "p1", "whiteboard-warmup"))

	session, err := repo.UpdateSessionStage(context.Background(), "s1", "p1", "whiteboard-warmup")
	require.NoError(t, err)
	assert.Equal(t, "whiteboard-warmup", session.Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuestionsByTag(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "questions" WHERE $1 = ANY(tags) ORDER BY title ASC`)).
		WithArgs("behavioral").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "tags"}).
			AddRow("q1", "Conflict", "Tell me about a conflict.", "{behavioral,teamwork}"))

	questions, err := repo.ListQuestionsByTag(context.Background(), "behavioral")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"behavioral", "teamwork"}, []string(questions[0].Tags))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchResumeChunksRejectsWrongWidth(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.SearchResumeChunks(context.Background(), "p1", []float32{1, 2, 3}, 3)
	assert.ErrorIs(t, err, models.ErrEmbeddingDimensions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchResumeChunksOrdersByCosineDistance(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "resume_chunks" WHERE profile_id = $1 AND embedding IS NOT NULL ORDER BY embedding <=> $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resume_id", "profile_id", "text", "chunk_index"}).
			AddRow("c1", "r1", "p1", "Led a team of five", 0))

	chunks, err := repo.SearchResumeChunks(context.Background(), "p1", make([]float32, models.EmbeddingDimensions), 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Led a team of five", chunks[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAuditLogDefaultsToSystemActor(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AppendAuditLog(context.Background(), "", "cleanup.run", map[string]interface{}{"purged": 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAPIKeyStoresMaskedKeyOnly(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "api_keys"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	profileID := "p1"
	key, err := repo.CreateAPIKey(context.Background(), &profileID, "provider", "sk-secret-9876", nil)
	require.NoError(t, err)
	assert.Equal(t, "**********9876", key.MaskedKey)
	assert.NotContains(t, key.MaskedKey, "secret")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileStatsWithoutActivity(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "interview_sessions" WHERE profile_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "session_events" WHERE session_id IN \(SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "session_events" WHERE session_id IN \(SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "session_events" WHERE session_id IN \(SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stats, err := repo.GetProfileStats(context.Background(), "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSessions)
	assert.Zero(t, stats.TotalEvents)
	assert.Nil(t, stats.LastActivityAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuthSessionByTokenHash(t *testing.T) {
	repo, mock := newMockRepository(t)

	expires := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "auth_sessions" WHERE token_hash = $1 AND expires_at > $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth_user_id", "token_hash", "expires_at"}).
			AddRow("s1", "u1", "hash", expires))

	session, err := repo.GetAuthSessionByTokenHash(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.AuthUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuthUserDuplicateEmail(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "auth_users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "auth_users_by_email"})

	err := repo.CreateAuthUser(context.Background(), &models.AuthUser{Email: "ada@example.com", UserID: "p1"})
	assert.ErrorIs(t, err, models.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuthUserOtherFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "auth_users"`)).
		WillReturnError(&pgconn.PgError{Code: "53300"})

	err := repo.CreateAuthUser(context.Background(), &models.AuthUser{Email: "ada@example.com", UserID: "p1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInterviewSessionMalformedID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "interview_sessions"`)).
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})

	session, err := repo.GetInterviewSession(context.Background(), "not-a-uuid", "p1")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobPosting(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "job_postings" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "source_url"}).
			AddRow("j1", "c1", "https://jobs.example.com/1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "job_postings" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posting, err := repo.GetJobPosting(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "c1", posting.CompanyID)

	_, err = repo.GetJobPosting(context.Background(), "j2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateResumeChunksRejectsWrongWidth(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.CreateResumeChunks(context.Background(), []models.ResumeChunk{{
		ResumeID:  "r1",
		ProfileID: "p1",
		Text:      "Go, Postgres",
		Embedding: models.NewEmbedding([]float32{0.1, 0.2}),
	}})
	assert.ErrorIs(t, err, models.ErrEmbeddingDimensions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
