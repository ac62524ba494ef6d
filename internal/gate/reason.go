package gate

import "strings"

// ReasonGenerator synthesizes the reason text stored with a decision. The
// production intent is a richer external explanation generator; the
// contract only requires a deterministic, pure function of (allow, flags).
type ReasonGenerator interface {
	Reason(allow bool, flags []string) string
}

// StubReasoner is the default ReasonGenerator: three fixed templates.
type StubReasoner struct{}

// Reason implements ReasonGenerator.
func (StubReasoner) Reason(allow bool, flags []string) string {
	if len(flags) == 0 {
		return "No policy flags matched; allow."
	}
	flagStr := strings.Join(flags, ", ")
	if allow {
		return "Flags present (" + flagStr + ") but not blocking; allow with flags."
	}
	return "Blocking checks present (" + flagStr + "); block."
}
