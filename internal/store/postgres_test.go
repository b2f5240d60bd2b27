package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/company-scout/scout-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(pgxmock.AnyArg(), "acme.com", "researching", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job, err := s.CreateJob(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "acme.com", job.Domain)
	assert.Equal(t, model.JobStatusResearching, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetJob(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get job")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	contacts, _ := json.Marshal([]model.Contact{
		{Name: "Jane Doe", Role: "CEO", Type: model.ContactTypeDecisionMaker, Email: "jane@acme.com"},
	})
	extraction := "parsed"
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "domain", "status", "lead_score", "summary", "contacts",
			"email_draft", "extraction_status", "failure_reason", "created_at", "updated_at",
		}).AddRow(
			"job-1", "acme.com", model.JobStatusQualified, 1, "Acme sells anvils.",
			contacts, "Hi Jane.", &extraction, (*string)(nil), now, now,
		))

	job, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQualified, job.Status)
	assert.Equal(t, 1, job.LeadScore)
	assert.Equal(t, model.ExtractionStatusParsed, job.ExtractionStatus)
	require.Len(t, job.Contacts, 1)
	assert.Equal(t, "Jane Doe", job.Contacts[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteJob_Qualified(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE companies SET status = \$1`).
		WithArgs("qualified", 2, "A summary.", pgxmock.AnyArg(), "Hi there.",
			"parsed", "", pgxmock.AnyArg(), "job-1", "researching").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteJob(context.Background(), "job-1", &model.EnrichmentResult{
		Status:    model.JobStatusQualified,
		LeadScore: 2,
		Summary:   "A summary.",
		Contacts: []model.Contact{
			{Name: "A", Type: model.ContactTypeChampion, Email: "a@acme.com"},
			{Name: "B", Type: model.ContactTypeInfluencer, Email: "b@acme.com"},
		},
		EmailDraft:       "Hi there.",
		ExtractionStatus: model.ExtractionStatusParsed,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteJob_AlreadyTerminal(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Zero rows affected: either unknown id or the status guard blocked a
	// second terminal write.
	mock.ExpectExec(`UPDATE companies SET status = \$1`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteJob(context.Background(), "job-1", &model.EnrichmentResult{
		Status:           model.JobStatusRejected,
		Contacts:         []model.Contact{},
		ExtractionStatus: model.ExtractionStatusFailed,
		FailureReason:    "capability call failed",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already terminal")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteJob_NonTerminalStatus(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.CompleteJob(context.Background(), "job-1", &model.EnrichmentResult{
		Status: model.JobStatusResearching,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal status")
}

func TestPostgresStore_ListJobs_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE true AND status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("qualified", 100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "domain", "status", "lead_score", "summary", "contacts",
			"email_draft", "extraction_status", "failure_reason", "created_at", "updated_at",
		}).AddRow(
			"job-1", "acme.com", model.JobStatusQualified, 1, "s", []byte(`[]`),
			"", (*string)(nil), (*string)(nil), now, now,
		))

	jobs, err := s.ListJobs(context.Background(), JobFilter{Status: model.JobStatusQualified})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS companies`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
