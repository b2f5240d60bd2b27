package store

import (
	"context"

	"github.com/company-scout/scout-cli/internal/model"
)

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Domain string          `json:"domain,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for enrichment jobs. The web
// layer owns CreateJob; the pipeline exclusively owns CompleteJob, the
// single terminal write.
type Store interface {
	CreateJob(ctx context.Context, domain string) (*model.Job, error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// CompleteJob atomically transitions a researching job to its terminal
	// status and populates the result fields. It is the only mutation the
	// pipeline performs; a job that is missing or already terminal is an
	// error.
	CompleteJob(ctx context.Context, jobID string, result *model.EnrichmentResult) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
