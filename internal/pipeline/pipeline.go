// Package pipeline orchestrates domain enrichment: corpus assembly,
// extraction, normalization, scoring, and the single terminal write.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-scout/scout-cli/internal/agent"
	"github.com/company-scout/scout-cli/internal/corpus"
	"github.com/company-scout/scout-cli/internal/extract"
	"github.com/company-scout/scout-cli/internal/model"
	"github.com/company-scout/scout-cli/internal/scorer"
	"github.com/company-scout/scout-cli/internal/store"
)

// Extractor is the capability surface the pipeline needs from the agent.
type Extractor interface {
	Extract(ctx context.Context, domain, corpusText string) (string, error)
}

// CorpusBuilder assembles the research corpus for a domain.
type CorpusBuilder interface {
	Build(ctx context.Context, domain string) *model.Corpus
}

// Pipeline runs one enrichment job to its terminal write. Each job owns
// its row exclusively; the store handle is the only shared resource.
type Pipeline struct {
	store      store.Store
	corpus     CorpusBuilder
	agent      Extractor
	scorer     scorer.Scorer
	jobTimeout time.Duration
}

// New creates a Pipeline with explicit dependencies so tests can
// substitute an in-memory store, a stub corpus builder, or a fake
// extraction capability.
func New(st store.Store, cb CorpusBuilder, ext Extractor, sc scorer.Scorer, jobTimeout time.Duration) *Pipeline {
	if sc == nil {
		sc = scorer.ContactCount{}
	}
	if jobTimeout <= 0 {
		jobTimeout = 300 * time.Second
	}
	return &Pipeline{
		store:      st,
		corpus:     cb,
		agent:      ext,
		scorer:     sc,
		jobTimeout: jobTimeout,
	}
}

// Run enriches one job to completion. It performs exactly one terminal
// write: qualified when extraction produced a result (including the
// degraded fallback path), rejected when the capability call itself
// failed. The returned error is non-nil only when the terminal write
// could not be performed; that must propagate to the task host for its
// retry policy.
func (p *Pipeline) Run(ctx context.Context, jobID, domain string) (*model.EnrichmentResult, error) {
	log := zap.L().With(zap.String("job_id", jobID), zap.String("domain", domain))
	log.Info("pipeline: starting enrichment")

	ctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	start := time.Now()

	// Corpus assembly absorbs all page-level failures; an empty corpus
	// still flows through so the run degrades instead of erroring.
	c := p.corpus.Build(ctx, domain)
	if c.Empty() {
		log.Warn("pipeline: empty corpus, extraction will likely degrade")
	}

	raw, err := p.agent.Extract(ctx, domain, c.Text)
	if err != nil {
		if !errors.Is(err, agent.ErrCapability) {
			err = eris.Wrap(err, "pipeline: extract")
		}
		log.Error("pipeline: capability call failed, rejecting job", zap.Error(err))
		result := &model.EnrichmentResult{
			Status:           model.JobStatusRejected,
			Contacts:         []model.Contact{},
			ExtractionStatus: model.ExtractionStatusFailed,
			FailureReason:    err.Error(),
		}
		if writeErr := p.complete(ctx, jobID, result); writeErr != nil {
			return nil, eris.Wrapf(writeErr, "pipeline: terminal write (rejected) for job %s", jobID)
		}
		return result, nil
	}

	outcome := extract.Parse(raw, domain)

	result := &model.EnrichmentResult{
		Status:           model.JobStatusQualified,
		LeadScore:        p.scorer.Score(outcome.Contacts),
		Summary:          outcome.Summary,
		Contacts:         outcome.Contacts,
		EmailDraft:       outcome.EmailDraft,
		ExtractionStatus: outcome.Status,
	}
	if outcome.Status == model.ExtractionStatusFallback {
		// The job still terminates as qualified with placeholder content,
		// but the tag keeps "failed to extract" distinguishable from
		// "extracted nothing" for anything reading the row.
		result.FailureReason = "model output failed JSON parse"
	}

	if writeErr := p.complete(ctx, jobID, result); writeErr != nil {
		return nil, eris.Wrapf(writeErr, "pipeline: terminal write (qualified) for job %s", jobID)
	}

	log.Info("pipeline: enrichment complete",
		zap.String("status", string(result.Status)),
		zap.Int("lead_score", result.LeadScore),
		zap.Int("contacts", len(result.Contacts)),
		zap.Int("sources", len(c.Sources)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// complete performs the terminal write on a context detached from the job
// deadline. When the deadline itself is what failed the run, the rejected
// state must still land instead of leaving the row researching.
func (p *Pipeline) complete(ctx context.Context, jobID string, result *model.EnrichmentResult) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return p.store.CompleteJob(wctx, jobID, result)
}

// Enrich creates a job for the domain and runs it synchronously. It is
// the entry point for the one-shot CLI; serve mode creates the job first
// and dispatches Run asynchronously instead.
func (p *Pipeline) Enrich(ctx context.Context, domain string) (*model.Job, *model.EnrichmentResult, error) {
	job, err := p.store.CreateJob(ctx, domain)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "pipeline: create job for %s", domain)
	}

	result, err := p.Run(ctx, job.ID, domain)
	if err != nil {
		return job, nil, err
	}
	return job, result, nil
}

var _ CorpusBuilder = (*corpus.Builder)(nil)
