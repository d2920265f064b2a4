package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/jobquery"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
)

// JobsOptions holds flags for the jobs command.
type JobsOptions struct {
	*RootOptions
	Database  string
	Open      bool
	State     string
	CPU       string
	Requester string
	Limit     int
}

// JobsResult is the jobs command's JSON payload.
type JobsResult struct {
	Jobs  []store.Job `json:"jobs"`
	Total int         `json:"total"`
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List journaled jobs",
		Long: `List the jobs recorded in a job journal, in submission order.

--open restricts the list to jobs still running; these are the jobs whose
requester links are restored when craftd run starts again on the same
database. --state, --cpu and --requester narrow the list further.

Examples:
  craftd jobs --db ./jobs.db
  craftd jobs --db ./jobs.db --open --format json
  craftd jobs --db ./jobs.db --state canceled --requester assembler --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite job journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "only list running jobs")
	cmd.Flags().StringVar(&opts.State, "state", "", "only list jobs in this state (running, done, canceled)")
	cmd.Flags().StringVar(&opts.CPU, "cpu", "", "only list jobs placed on this CPU")
	cmd.Flags().StringVar(&opts.Requester, "requester", "", "only list jobs of this requester")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list at most N jobs (0 lists all)")

	return cmd
}

func runJobs(opts *JobsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	q, err := jobsQuery(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	jobs, err := st.FindJobs(ctx, q)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read jobs", err)
	}

	if f.JSON() {
		return f.Success(JobsResult{Jobs: jobs, Total: len(jobs)})
	}
	if len(jobs) == 0 {
		fmt.Fprintln(f.Writer, "No jobs found.")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tREQUEST\tCPU\tREQUESTER\tSUBMITTED\tFINISHED")
	for _, j := range jobs {
		finished := "-"
		if j.FinishedTick > 0 {
			finished = fmt.Sprint(j.FinishedTick)
		}
		requester := j.Requester
		if requester == "" {
			requester = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.State, j.Request, j.CPU, requester, j.SubmittedTick, finished)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "\n%d job(s)\n", len(jobs))
	return nil
}

// jobsQuery turns the filter flags into a journal query.
func jobsQuery(opts *JobsOptions) (jobquery.Query, error) {
	var preds []jobquery.Predicate
	state := opts.State
	if opts.Open {
		if state != "" && state != string(crafting.JobRunning) {
			return jobquery.Query{}, fmt.Errorf("--open conflicts with --state %s", state)
		}
		state = string(crafting.JobRunning)
	}
	if state != "" {
		preds = append(preds, jobquery.InState(crafting.JobState(state)))
	}
	if opts.CPU != "" {
		preds = append(preds, jobquery.Equals{Field: jobquery.FieldCPU, Value: opts.CPU})
	}
	if opts.Requester != "" {
		preds = append(preds, jobquery.Equals{Field: jobquery.FieldRequester, Value: opts.Requester})
	}
	q := jobquery.Where(preds...)
	q.Limit = opts.Limit
	return q, jobquery.Validate(q)
}
