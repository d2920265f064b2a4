package grid

import "fmt"

// SourceKind distinguishes who initiated an action.
type SourceKind string

const (
	SourcePlayer  SourceKind = "player"
	SourceMachine SourceKind = "machine"
)

// ActionSource identifies the requester of a job. CPU policies and
// preferences are keyed by it.
type ActionSource struct {
	Kind SourceKind `json:"kind"`
	// Name is the player name or the requesting node's id.
	Name string `json:"name"`
}

// Player returns a player action source.
func Player(name string) ActionSource {
	return ActionSource{Kind: SourcePlayer, Name: name}
}

// Machine returns an action source for a requesting node.
func Machine(id NodeID) ActionSource {
	return ActionSource{Kind: SourceMachine, Name: string(id)}
}

// IsZero reports whether no source was given.
func (s ActionSource) IsZero() bool { return s == ActionSource{} }

func (s ActionSource) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Name)
}
