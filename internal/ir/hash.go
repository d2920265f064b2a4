package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPattern = "craftd/pattern/v1"
	DomainPlan    = "craftd/plan/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputePatternID hashes the structural content of a pattern.
// The display name is excluded: two providers that encode the same recipe
// under different names still offer the same pattern.
func ComputePatternID(p *Pattern) (PatternID, error) {
	obj := map[string]any{
		"output": p.output,
		"inputs": p.inputs,
	}
	if len(p.byprods) > 0 {
		obj["byproducts"] = p.byprods
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("pattern id: %w", err)
	}
	return PatternID(hashWithDomain(DomainPattern, canonical)), nil
}

// PlanDigest hashes a plan's request, byte cost and steps. Used to
// compare plans in traces without printing them in full.
func PlanDigest(p *Plan) (string, error) {
	steps := make([]any, len(p.Steps))
	for i, st := range p.Steps {
		steps[i] = map[string]any{
			"pattern": string(st.Pattern.ID()),
			"times":   st.Times,
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"request":    p.Request,
		"bytes":      p.Bytes,
		"simulation": p.Simulation,
		"steps":      steps,
		"missing":    p.Missing,
	})
	if err != nil {
		return "", fmt.Errorf("plan digest: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}
