// Package gate evaluates outbound draft text against compiled compliance
// checks and records an allow/block decision for every draft. The gate is
// independent of the ingest/detect pipeline; it shares only the storage
// substrate.
package gate

import (
	"fmt"
	"regexp"
)

// Check actions. A "flag" check is informational; only ids listed in the
// decision policy's block_if set can force a block.
const (
	ActionFlag           = "flag"
	ActionBlockCandidate = "block-candidate"
)

// CheckSpec is one compliance check from policy_gate.yml.
type CheckSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Action  string `yaml:"action"`
	Pattern string `yaml:"pattern"`
}

// DecisionPolicy names the check ids whose presence forces a block.
type DecisionPolicy struct {
	BlockIf []string `yaml:"block_if"`
}

// Rule is a compiled compliance check. Patterns match case-insensitively.
type Rule struct {
	ID     string
	Name   string
	Action string
	re     *regexp.Regexp
}

// CompileChecks compiles the check specs in config order. An invalid
// pattern is a configuration error.
func CompileChecks(specs []CheckSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		action := spec.Action
		if action == "" {
			action = ActionFlag
		}
		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("gate: check %s pattern %q: %w", spec.ID, spec.Pattern, err)
		}
		rules = append(rules, Rule{ID: spec.ID, Name: spec.Name, Action: action, re: re})
	}
	return rules, nil
}

// RunChecks returns rule id -> matched substrings for every rule with at
// least one match. Matches within a rule follow text order; rules with no
// matches are omitted entirely.
func RunChecks(text string, rules []Rule) map[string][]string {
	hits := make(map[string][]string)
	for _, r := range rules {
		found := r.re.FindAllString(text, -1)
		if len(found) > 0 {
			hits[r.ID] = found
		}
	}
	return hits
}

// Decide applies the decision policy: allow is false iff any block_if id is
// present in hits. Flags list every hit rule id — informational ones
// included — in rule order, so the decision is a pure function of
// (blockIf, hits) with a deterministic flag order.
func Decide(blockIf []string, rules []Rule, hits map[string][]string) (allow bool, flags []string) {
	blocked := make(map[string]bool, len(blockIf))
	for _, id := range blockIf {
		blocked[id] = true
	}

	allow = true
	for _, r := range rules {
		if _, ok := hits[r.ID]; !ok {
			continue
		}
		flags = append(flags, r.ID)
		if blocked[r.ID] {
			allow = false
		}
	}
	return allow, flags
}
