package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialJobIDs(t *testing.T) {
	g := NewSequentialJobIDs()
	first := g.NewJobID()
	second := g.NewJobID()

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", first.String())
	assert.Equal(t, JobID(2), second)
	assert.Equal(t, 7, int(first.Version()))
}
