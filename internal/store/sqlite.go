package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/company-scout/scout-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// local/dev backend; production runs use PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                TEXT PRIMARY KEY,
	domain            TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'researching',
	lead_score        INTEGER NOT NULL DEFAULT 0,
	summary           TEXT NOT NULL DEFAULT '',
	contacts          TEXT,
	email_draft       TEXT NOT NULL DEFAULT '',
	extraction_status TEXT,
	failure_reason    TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, domain string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, domain, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, domain, string(model.JobStatusResearching), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert job for %s", domain)
	}

	return &model.Job{
		ID:        id,
		Domain:    domain,
		Status:    model.JobStatusResearching,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, status, lead_score, summary, contacts, email_draft, extraction_status, failure_reason, created_at, updated_at FROM companies WHERE id = ?`,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	return job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, domain, status, lead_score, summary, contacts, email_draft, extraction_status, failure_reason, created_at, updated_at FROM companies WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, filter.Domain)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, result *model.EnrichmentResult) error {
	if !result.Status.Terminal() {
		return eris.Errorf("sqlite: %q is not a terminal status", result.Status)
	}

	contactsJSON, err := json.Marshal(result.Contacts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal contacts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET status = ?, lead_score = ?, summary = ?, contacts = ?, email_draft = ?, extraction_status = ?, failure_reason = ?, updated_at = ?
	 WHERE id = ? AND status = ?`,
		string(result.Status), result.LeadScore, result.Summary, string(contactsJSON),
		result.EmailDraft, string(result.ExtractionStatus), result.FailureReason,
		time.Now().UTC(), jobID, string(model.JobStatusResearching),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", jobID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Errorf("sqlite: job %s not found or already terminal", jobID)
	}
	return nil
}
