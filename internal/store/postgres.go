package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/company-scout/scout-cli/internal/db"
	"github.com/company-scout/scout-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection. The
// insert, get, and terminal update are the hot path: one of each per job.
var preparedStatements = map[string]string{
	"insert_company": `INSERT INTO companies (id, domain, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_company":    `SELECT id, domain, status, lead_score, summary, contacts, email_draft, extraction_status, failure_reason, created_at, updated_at FROM companies WHERE id = $1`,
	"complete_company": `UPDATE companies SET status = $1, lead_score = $2, summary = $3, contacts = $4, email_draft = $5, extraction_status = $6, failure_reason = $7, updated_at = $8
	 WHERE id = $9 AND status = $10`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	domain            TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'researching',
	lead_score        INTEGER NOT NULL DEFAULT 0,
	summary           TEXT NOT NULL DEFAULT '',
	contacts          JSONB,
	email_draft       TEXT NOT NULL DEFAULT '',
	extraction_status TEXT,
	failure_reason    TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
CREATE INDEX IF NOT EXISTS idx_companies_created_at ON companies(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, domain string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, domain, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, domain, string(model.JobStatusResearching), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert job for %s", domain)
	}

	return &model.Job{
		ID:        id,
		Domain:    domain,
		Status:    model.JobStatusResearching,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, domain, status, lead_score, summary, contacts, email_draft, extraction_status, failure_reason, created_at, updated_at FROM companies WHERE id = $1`,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT id, domain, status, lead_score, summary, contacts, email_draft, extraction_status, failure_reason, created_at, updated_at FROM companies WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, argIdx)
		args = append(args, filter.Domain)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

// CompleteJob performs the single terminal write. The status guard in the
// WHERE clause means a job can leave researching exactly once; a second
// invocation, or an unknown id, affects zero rows and is reported as an
// error for the caller to surface.
func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string, result *model.EnrichmentResult) error {
	if !result.Status.Terminal() {
		return eris.Errorf("postgres: %q is not a terminal status", result.Status)
	}

	contactsJSON, err := json.Marshal(result.Contacts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal contacts")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET status = $1, lead_score = $2, summary = $3, contacts = $4, email_draft = $5, extraction_status = $6, failure_reason = $7, updated_at = $8
	 WHERE id = $9 AND status = $10`,
		string(result.Status), result.LeadScore, result.Summary, contactsJSON,
		result.EmailDraft, string(result.ExtractionStatus), result.FailureReason,
		time.Now().UTC(), jobID, string(model.JobStatusResearching),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: job %s not found or already terminal", jobID)
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	var contactsJSON []byte
	var extractionStatus, failureReason *string

	err := row.Scan(&j.ID, &j.Domain, &j.Status, &j.LeadScore, &j.Summary,
		&contactsJSON, &j.EmailDraft, &extractionStatus, &failureReason,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "job not found")
		}
		return nil, err
	}

	if len(contactsJSON) > 0 {
		if err := json.Unmarshal(contactsJSON, &j.Contacts); err != nil {
			return nil, eris.Wrap(err, "unmarshal contacts")
		}
	}
	if extractionStatus != nil {
		j.ExtractionStatus = model.ExtractionStatus(*extractionStatus)
	}
	if failureReason != nil {
		j.FailureReason = *failureReason
	}
	return &j, nil
}
