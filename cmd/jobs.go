package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/company-scout/scout-cli/internal/model"
	"github.com/company-scout/scout-cli/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect enrichment job history",
	Long:  "Commands for listing, viewing, and summarizing enrichment jobs.",
}

// -- jobs list --

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrichment jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.JobFilter{
			Status: model.JobStatus(status),
			Domain: domain,
			Limit:  limit,
		}

		jobs, err := st.ListJobs(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if len(jobs) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}

		formatJobsList(os.Stdout, jobs)
		return nil
	},
}

// -- jobs show --

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show full details of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "jobs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

// -- jobs stats --

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate job statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		jobs, err := st.ListJobs(ctx, store.JobFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "jobs stats")
		}

		stats := computeJobStats(jobs)
		formatJobStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	jobsListCmd.Flags().String("status", "", "filter by job status (researching, qualified, rejected)")
	jobsListCmd.Flags().String("domain", "", "filter by company domain")
	jobsListCmd.Flags().Int("limit", 50, "max number of jobs to display")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsStatsCmd)
	rootCmd.AddCommand(jobsCmd)
}

// jobStats holds aggregate statistics computed from a set of jobs.
type jobStats struct {
	Total        int
	Researching  int
	Qualified    int
	Rejected     int
	Fallback     int
	AvgLeadScore float64
}

func computeJobStats(jobs []model.Job) jobStats {
	var s jobStats
	s.Total = len(jobs)

	var scoreSum int
	for _, j := range jobs {
		switch j.Status {
		case model.JobStatusQualified:
			s.Qualified++
			scoreSum += j.LeadScore
		case model.JobStatusRejected:
			s.Rejected++
		default:
			s.Researching++
		}
		if j.ExtractionStatus == model.ExtractionStatusFallback {
			s.Fallback++
		}
	}

	if s.Qualified > 0 {
		s.AvgLeadScore = float64(scoreSum) / float64(s.Qualified)
	}
	return s
}

// formatJobsList writes a tabular list of jobs to w.
func formatJobsList(out io.Writer, jobs []model.Job) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDOMAIN\tSTATUS\tSCORE\tEXTRACTION\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-----\t----------\t-------")

	for _, j := range jobs {
		domain := j.Domain
		if len(domain) > 30 {
			domain = domain[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(j.ID),
			domain,
			j.Status,
			j.LeadScore,
			j.ExtractionStatus,
			j.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatJobStats writes aggregate stats to w.
func formatJobStats(out io.Writer, s jobStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total jobs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Researching:\t%d\n", s.Researching)
	_, _ = fmt.Fprintf(w, "Qualified:\t%d\n", s.Qualified)
	_, _ = fmt.Fprintf(w, "Rejected:\t%d\n", s.Rejected)
	_, _ = fmt.Fprintf(w, "Parse fallbacks:\t%d\n", s.Fallback)
	if s.AvgLeadScore > 0 {
		_, _ = fmt.Fprintf(w, "Avg lead score:\t%.1f\n", s.AvgLeadScore)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
