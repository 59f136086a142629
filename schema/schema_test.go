package schema

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krshsl/intervue/models"
)

type tabler interface {
	TableName() string
}

func readMigrations(t *testing.T) string {
	t.Helper()

	files, err := fs.Glob(Migrations(), "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var b strings.Builder
	for _, f := range files {
		data, err := fs.ReadFile(Migrations(), f)
		require.NoError(t, err)
		b.Write(data)
		b.WriteString("\n")
	}
	return strings.ToLower(b.String())
}

func TestMigrationsDeclareEveryTable(t *testing.T) {
	sql := readMigrations(t)

	for _, table := range append(append([]Table{}, Tables...), AuthTables...) {
		t.Run(table.Name, func(t *testing.T) {
			assert.Contains(t, sql, "create table if not exists "+table.Name+" (")

			for _, idx := range table.Indexes {
				name := strings.ToLower(PhysicalName(table.Name, idx.Name))
				assert.Contains(t, sql, name+" on "+table.Name, "index %s", idx.Name)
			}
			for _, v := range table.VectorIndexes {
				assert.Equal(t, models.EmbeddingDimensions, v.Dimensions)
				assert.Contains(t, sql, v.Name+" on "+table.Name+" using hnsw ("+v.Field)
			}
		})
	}
}

func TestMigrationsHaveGooseAnnotations(t *testing.T) {
	files, err := fs.Glob(Migrations(), "migrations/*.sql")
	require.NoError(t, err)

	for _, f := range files {
		data, err := fs.ReadFile(Migrations(), f)
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", f)
		assert.Contains(t, string(data), "-- +goose Down", f)
	}
}

func TestModelsMatchDeclaredTables(t *testing.T) {
	all := []tabler{
		models.Profile{}, models.Resume{}, models.ResumeChunk{}, models.ResumeCritique{},
		models.Company{}, models.JobPosting{}, models.CompanyDocChunk{},
		models.InterviewSession{}, models.SessionEvent{}, models.TranscriptChunk{},
		models.Question{}, models.QuestionInstance{}, models.Evaluation{}, models.FeedbackReport{},
		models.Resource{}, models.APIKey{}, models.AuditLog{}, models.SystemTask{},
		models.AuthUser{}, models.AuthSession{},
	}

	assert.Len(t, all, len(Tables)+len(AuthTables))
	for _, m := range all {
		_, ok := Lookup(m.TableName())
		assert.True(t, ok, "model table %s is not declared", m.TableName())
	}
}

func TestLookup(t *testing.T) {
	table, ok := Lookup("resume_chunks")
	require.True(t, ok)
	require.Len(t, table.VectorIndexes, 1)
	assert.Equal(t, "resume_chunks_by_embedding", table.VectorIndexes[0].Name)
	assert.Equal(t, 1536, table.VectorIndexes[0].Dimensions)

	_, ok = Lookup("agents")
	assert.False(t, ok)
}

func TestPhysicalName(t *testing.T) {
	assert.Equal(t, "profiles_by_email", PhysicalName("profiles", "by_email"))
	assert.Equal(t, "company_chunks_by_embedding", PhysicalName("company_doc_chunks", "company_chunks_by_embedding"))
}
