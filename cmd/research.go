package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var researchConcurrency int

var researchCmd = &cobra.Command{
	Use:   "research <domain> [domain...]",
	Short: "Run enrichment for one or more company domains",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			job, result, err := env.Pipeline.Enrich(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "pipeline run")
			}

			zap.L().Info("enrichment complete",
				zap.String("job_id", job.ID),
				zap.String("domain", job.Domain),
				zap.String("status", string(result.Status)),
				zap.Int("lead_score", result.LeadScore),
			)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		zap.L().Info("processing batch",
			zap.Int("domains", len(args)),
			zap.Int("concurrency", researchConcurrency),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(researchConcurrency)

		var succeeded, failed atomic.Int64

		for _, domain := range args {
			g.Go(func() error {
				log := zap.L().With(zap.String("domain", domain))

				_, result, err := env.Pipeline.Enrich(gctx, domain)
				if err != nil {
					failed.Add(1)
					log.Error("enrichment failed", zap.Error(err))
					return nil // don't abort batch on individual failure
				}

				succeeded.Add(1)
				log.Info("enrichment complete",
					zap.String("status", string(result.Status)),
					zap.Int("lead_score", result.LeadScore),
					zap.Int("contacts", len(result.Contacts)),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch processing")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	researchCmd.Flags().IntVar(&researchConcurrency, "concurrency", 3, "max domains enriched in parallel")
	rootCmd.AddCommand(researchCmd)
}
