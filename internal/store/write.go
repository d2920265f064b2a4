package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// ErrJobNotFound is returned for job ids that were never journaled.
var ErrJobNotFound = errors.New("job not found")

// WriteJob journals a submitted job in the running state.
// ON CONFLICT(id) DO NOTHING makes rewrites of the same id a no-op.
func (s *Store) WriteJob(ctx context.Context, rec crafting.JobRecord) error {
	request, err := marshalRequest(rec.Request)
	if err != nil {
		return fmt.Errorf("write job %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs
		(id, seq, submitted_tick, cpu, source, requester, request, bytes, plan_digest, state)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM jobs), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID.String(),
		rec.Tick,
		rec.CPU,
		rec.Source,
		rec.Requester,
		request,
		rec.Bytes,
		rec.PlanDigest,
		string(crafting.JobRunning),
	)
	if err != nil {
		return fmt.Errorf("write job %s: %w", rec.ID, err)
	}
	return nil
}

// FinishJob records the final state of a running job. Finishing a job
// twice keeps the first outcome.
func (s *Store) FinishJob(ctx context.Context, id ir.JobID, state crafting.JobState, tick int64) error {
	if state != crafting.JobDone && state != crafting.JobCanceled {
		return fmt.Errorf("finish job %s: invalid final state %q", id, state)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, finished_tick = ?
		WHERE id = ? AND state = ?
	`, string(state), tick, id.String(), string(crafting.JobRunning))
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.ReadJob(ctx, id); err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	return nil
}
