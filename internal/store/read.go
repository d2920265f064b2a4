package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/jobquery"
)

// Job is one journaled job.
type Job struct {
	ID            ir.JobID          `json:"id"`
	Seq           int64             `json:"seq"`
	SubmittedTick int64             `json:"submitted_tick"`
	CPU           string            `json:"cpu"`
	Source        string            `json:"source,omitempty"`
	Requester     string            `json:"requester,omitempty"`
	Request       ir.Stack          `json:"request"`
	Bytes         int64             `json:"bytes"`
	PlanDigest    string            `json:"plan_digest,omitempty"`
	State         crafting.JobState `json:"state"`
	FinishedTick  int64             `json:"finished_tick,omitempty"`
}

const jobColumns = `id, seq, submitted_tick, cpu, source, requester, request, bytes, plan_digest, state, finished_tick`

// ReadJob returns the job with id, or ErrJobNotFound.
func (s *Store) ReadJob(ctx context.Context, id ir.JobID) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("read job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns every journaled job in submission order.
//
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	return s.FindJobs(ctx, jobquery.Query{})
}

// OpenJobs returns the jobs still running, in submission order.
func (s *Store) OpenJobs(ctx context.Context) ([]Job, error) {
	return s.FindJobs(ctx, jobquery.Where(jobquery.Running()))
}

// JobsForRequester returns the running jobs of a named requester, so a
// requester rebuilt after restart can restore its links.
func (s *Store) JobsForRequester(ctx context.Context, requester string) ([]Job, error) {
	return s.FindJobs(ctx, jobquery.Where(
		jobquery.Equals{Field: jobquery.FieldRequester, Value: requester},
		jobquery.Running(),
	))
}

// FindJobs returns the jobs matching q in submission order.
func (s *Store) FindJobs(ctx context.Context, q jobquery.Query) ([]Job, error) {
	query, args, err := jobquery.Compile("jobs", jobColumns, q)
	if err != nil {
		return nil, err
	}
	return s.queryJobs(ctx, query, args...)
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var (
		job      Job
		id       string
		request  string
		state    string
		finished sql.NullInt64
	)
	err := row.Scan(
		&id,
		&job.Seq,
		&job.SubmittedTick,
		&job.CPU,
		&job.Source,
		&job.Requester,
		&request,
		&job.Bytes,
		&job.PlanDigest,
		&state,
		&finished,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, err
		}
		return Job{}, fmt.Errorf("scan job: %w", err)
	}

	if job.ID, err = ir.ParseJobID(id); err != nil {
		return Job{}, fmt.Errorf("scan job: %w", err)
	}
	if job.Request, err = unmarshalRequest(request); err != nil {
		return Job{}, fmt.Errorf("scan job %s: %w", id, err)
	}
	job.State = crafting.JobState(state)
	job.FinishedTick = finished.Int64
	return job, nil
}
