package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/company-scout/scout-cli/internal/agent"
	"github.com/company-scout/scout-cli/internal/corpus"
	"github.com/company-scout/scout-cli/internal/fetch"
	"github.com/company-scout/scout-cli/internal/pipeline"
	"github.com/company-scout/scout-cli/internal/prompt"
	"github.com/company-scout/scout-cli/internal/scorer"
	"github.com/company-scout/scout-cli/internal/store"
	anthropicpkg "github.com/company-scout/scout-cli/pkg/anthropic"
)

// pipelineEnv holds the initialized store and pipeline needed by the
// research/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "scout.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, the Anthropic client, the fetcher, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.ValidatePipeline(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rules, err := prompt.LoadRules(cfg.Research.RulesFile)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load extraction rules")
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent: cfg.Research.UserAgent,
		Timeout:   cfg.Research.FetchTimeout(),
		MaxChars:  cfg.Research.PageMaxChars,
		HostRate:  rate.Limit(cfg.Research.HostRatePerSec),
		HostBurst: cfg.Research.HostBurst,
	})

	builder := corpus.NewBuilder(fetcher, corpus.Options{
		CandidatePaths: cfg.Research.CandidatePaths,
		MinPageChars:   cfg.Research.MinPageChars,
		MaxChars:       cfg.Research.CorpusMaxChars,
	})

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	ag := agent.New(anthropicClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, rules)

	p := pipeline.New(st, builder, ag, scorer.ContactCount{}, cfg.Research.JobTimeout())

	zap.L().Info("pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("model", cfg.Anthropic.Model),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
	}, nil
}
