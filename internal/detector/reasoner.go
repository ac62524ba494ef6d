package detector

import "strings"

// RationaleGenerator produces the rationale text stored with a decision.
// Implementations must be synchronous, pure functions of their inputs so
// the pipeline stays deterministic and testable without a live reasoning
// backend; the stored rationale is consumed as an opaque string.
type RationaleGenerator interface {
	Rationale(score float64, matched, exculpatory []string) string
}

// HeuristicReasoner is the default RationaleGenerator: fixed templates over
// the matched and exculpatory rule ids.
type HeuristicReasoner struct{}

// Rationale implements RationaleGenerator.
func (HeuristicReasoner) Rationale(score float64, matched, exculpatory []string) string {
	if len(matched) > 0 && len(exculpatory) == 0 {
		return "Matched " + strings.Join(matched, ", ") + "; no benign context detected."
	}
	if len(exculpatory) > 0 {
		return "Benign context matched (" + strings.Join(exculpatory, ", ") + "); likely benign."
	}
	return "No strong signals."
}
