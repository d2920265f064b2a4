package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// JobID identifies one submitted job across its whole lifecycle,
// including persistence and reload.
type JobID = uuid.UUID

// ParseJobID parses the canonical hyphenated form.
func ParseJobID(s string) (JobID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return JobID{}, fmt.Errorf("parse job id %q: %w", s, err)
	}
	return id, nil
}
