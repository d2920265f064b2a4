package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// DefaultJournalTimeout bounds each journal write made from the tick loop.
const DefaultJournalTimeout = 2 * time.Second

// Journal adapts a Store to crafting.Journal. Writes run synchronously on
// the tick goroutine with a per-write timeout.
type Journal struct {
	store   *Store
	timeout time.Duration
	logger  *slog.Logger
}

var _ crafting.Journal = (*Journal)(nil)

// NewJournal wraps s. A timeout <= 0 selects DefaultJournalTimeout.
func NewJournal(s *Store, timeout time.Duration, logger *slog.Logger) *Journal {
	if timeout <= 0 {
		timeout = DefaultJournalTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: s, timeout: timeout, logger: logger}
}

// JobSubmitted implements crafting.Journal.
func (j *Journal) JobSubmitted(rec crafting.JobRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.store.WriteJob(ctx, rec); err != nil {
		return err
	}
	j.logger.Debug("job journaled", "job_id", rec.ID.String(), "cpu", rec.CPU)
	return nil
}

// JobFinished implements crafting.Journal.
func (j *Journal) JobFinished(id ir.JobID, state crafting.JobState, tick int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.store.FinishJob(ctx, id, state, tick)
}
