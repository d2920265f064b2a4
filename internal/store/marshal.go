package store

import (
	"encoding/json"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// marshalRequest stores a request stack as canonical JSON, so equal
// requests are byte-equal in the journal.
func marshalRequest(req ir.Stack) (string, error) {
	data, err := ir.MarshalCanonical(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return string(data), nil
}

type storedKey struct {
	Kind    ir.KeyKind `json:"kind"`
	ID      string     `json:"id"`
	Variant string     `json:"variant"`
}

type storedStack struct {
	What   storedKey `json:"what"`
	Amount int64     `json:"amount"`
}

// unmarshalRequest parses what marshalRequest wrote.
func unmarshalRequest(data string) (ir.Stack, error) {
	var st storedStack
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return ir.Stack{}, fmt.Errorf("unmarshal request: %w", err)
	}
	return ir.Stack{
		What:   ir.NewKey(st.What.Kind, st.What.ID, st.What.Variant),
		Amount: st.Amount,
	}, nil
}
