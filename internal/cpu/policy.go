package cpu

import (
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
)

// SelectionMode restricts which requesters may have a cluster picked
// automatically.
type SelectionMode string

const (
	ModeAny         SelectionMode = "any"
	ModePlayerOnly  SelectionMode = "player_only"
	ModeMachineOnly SelectionMode = "machine_only"
)

// ParseSelectionMode parses a mode name. The empty string is ModeAny.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch SelectionMode(s) {
	case "", ModeAny:
		return ModeAny, nil
	case ModePlayerOnly, ModeMachineOnly:
		return SelectionMode(s), nil
	}
	return "", fmt.Errorf("unknown cpu selection mode %q", s)
}

// Policy is a cluster's inclusion policy keyed by requester identity.
type Policy struct {
	Mode SelectionMode
}

// Permits reports whether the cluster may be auto-selected for src.
func (p Policy) Permits(src grid.ActionSource) bool {
	switch p.Mode {
	case ModePlayerOnly:
		return src.Kind == grid.SourcePlayer
	case ModeMachineOnly:
		return src.Kind != grid.SourcePlayer
	}
	return true
}

// Prefers reports whether the cluster is dedicated to src's kind.
// Preferred clusters are ranked before all others.
func (p Policy) Prefers(src grid.ActionSource) bool {
	switch p.Mode {
	case ModePlayerOnly:
		return src.Kind == grid.SourcePlayer
	case ModeMachineOnly:
		return src.Kind != grid.SourcePlayer
	}
	return false
}
