// Package schema declares the persisted-state contract: every table, its
// secondary indexes and its vector indexes, plus the migrations that create them.
package schema

// Index is a secondary index over one or more fields.
type Index struct {
	Name   string
	Fields []string
}

// VectorIndex is a nearest-neighbour index over an embedding field.
type VectorIndex struct {
	Name       string
	Field      string
	Dimensions int
}

// Table describes one table and the indexes declared on it.
type Table struct {
	Name          string
	Indexes       []Index
	VectorIndexes []VectorIndex
}

// Dimensions is the embedding width used by every vector index.
const Dimensions = 1536

// Tables lists the application tables in dependency order.
var Tables = []Table{
	{Name: "profiles", Indexes: []Index{{Name: "by_email", Fields: []string{"email"}}}},
	{Name: "resumes", Indexes: []Index{{Name: "by_profile", Fields: []string{"profile_id"}}}},
	{
		Name:          "resume_chunks",
		Indexes:       []Index{{Name: "by_resume", Fields: []string{"resume_id"}}},
		VectorIndexes: []VectorIndex{{Name: "resume_chunks_by_embedding", Field: "embedding", Dimensions: Dimensions}},
	},
	{Name: "resume_critiques", Indexes: []Index{{Name: "by_resume", Fields: []string{"resume_id"}}}},
	{Name: "companies", Indexes: []Index{{Name: "by_name", Fields: []string{"name"}}}},
	{Name: "job_postings", Indexes: []Index{{Name: "by_company", Fields: []string{"company_id"}}}},
	{
		Name:          "company_doc_chunks",
		Indexes:       []Index{{Name: "by_jobPosting", Fields: []string{"job_posting_id"}}},
		VectorIndexes: []VectorIndex{{Name: "company_chunks_by_embedding", Field: "embedding", Dimensions: Dimensions}},
	},
	{Name: "interview_sessions", Indexes: []Index{{Name: "by_profile", Fields: []string{"profile_id"}}}},
	{Name: "session_events", Indexes: []Index{{Name: "by_session", Fields: []string{"session_id"}}}},
	{Name: "transcript_chunks", Indexes: []Index{{Name: "by_session", Fields: []string{"session_id"}}}},
	{Name: "questions", Indexes: []Index{{Name: "by_tag", Fields: []string{"tags"}}}},
	{Name: "question_instances", Indexes: []Index{{Name: "by_session", Fields: []string{"session_id"}}}},
	{Name: "evaluations", Indexes: []Index{{Name: "by_session", Fields: []string{"session_id"}}}},
	{Name: "feedback_reports", Indexes: []Index{{Name: "by_profile", Fields: []string{"profile_id"}}}},
	{Name: "resources", Indexes: []Index{{Name: "by_tag", Fields: []string{"tags"}}}},
	{Name: "api_keys"},
	{Name: "audit_logs"},
	{Name: "system_tasks"},
}

// AuthTables are owned by the auth component rather than the application.
var AuthTables = []Table{
	{Name: "auth_users", Indexes: []Index{{Name: "by_email", Fields: []string{"email"}}}},
	{Name: "auth_sessions", Indexes: []Index{{Name: "by_token", Fields: []string{"token_hash"}}}},
}

// Lookup returns the declaration for name across application and auth tables.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	for _, t := range AuthTables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// PhysicalName is the database name of an index. Index names are only unique
// per table in the declaration, so the table name is prefixed unless the
// declared name already carries it.
func PhysicalName(table string, indexName string) string {
	for _, t := range Tables {
		for _, v := range t.VectorIndexes {
			if v.Name == indexName {
				return indexName
			}
		}
	}
	return table + "_" + indexName
}
