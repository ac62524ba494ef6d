// Package detector scores ledger items against weighted regex rules and
// records the resulting mark/acquittal decisions. The scoring side stands
// in for an external reasoning collaborator; the arbiter side owns the
// bookkeeping invariants around whatever that collaborator produces.
package detector

import (
	"fmt"
	"regexp"
)

// Default thresholds, used when the config leaves them unset.
const (
	defaultMarkThreshold   = 0.65
	defaultAcquitThreshold = 0.35
	defaultRuleWeight      = 0.5

	// exculpatoryDeduction is subtracted from the score for each benign
	// context match.
	exculpatoryDeduction = 0.2
)

// RuleSpec is one detection rule from detector_rules.yml.
type RuleSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Pattern     string   `yaml:"pattern"`
	Weight      float64  `yaml:"weight"`
	Exculpatory []string `yaml:"exculpatory"`
}

// Thresholds split the score range into mark / held / acquit bands.
type Thresholds struct {
	Mark   float64 `yaml:"mark"`
	Acquit float64 `yaml:"acquit"`
}

type rule struct {
	id          string
	name        string
	re          *regexp.Regexp
	weight      float64
	exculpatory []*regexp.Regexp
}

// RuleSet is a compiled set of detection rules. Compile once per run;
// Score is stateless and safe for concurrent use.
type RuleSet struct {
	rules      []rule
	thresholds Thresholds
}

// CompileRules compiles the rule specs. A zero weight falls back to the
// default; zero thresholds fall back to the defaults.
func CompileRules(specs []RuleSpec, th Thresholds) (*RuleSet, error) {
	if th.Mark == 0 {
		th.Mark = defaultMarkThreshold
	}
	if th.Acquit == 0 {
		th.Acquit = defaultAcquitThreshold
	}

	rs := &RuleSet{thresholds: th}
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("detector: rule %s pattern %q: %w", spec.ID, spec.Pattern, err)
		}
		r := rule{id: spec.ID, name: spec.Name, re: re, weight: spec.Weight}
		if r.weight == 0 {
			r.weight = defaultRuleWeight
		}
		for _, p := range spec.Exculpatory {
			ex, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("detector: rule %s exculpatory %q: %w", spec.ID, p, err)
			}
			r.exculpatory = append(r.exculpatory, ex)
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Thresholds returns the effective mark/acquit thresholds.
func (rs *RuleSet) Thresholds() Thresholds {
	return rs.thresholds
}

// Scored is the outcome of scoring one body of text.
type Scored struct {
	Score       float64
	Matched     []string // ids of rules whose pattern matched
	Exculpatory []string // "<rule id>:ex" per benign context match
}

// Score sums the weights of matching rules and deducts a fixed amount per
// exculpatory match, clamping the result to [0,1]. Exculpatory patterns
// apply whether or not their rule's own pattern matched.
func (rs *RuleSet) Score(body string) Scored {
	var sc Scored
	for _, r := range rs.rules {
		if r.re.MatchString(body) {
			sc.Matched = append(sc.Matched, r.id)
			sc.Score += r.weight
		}
		for _, ex := range r.exculpatory {
			if ex.MatchString(body) {
				sc.Exculpatory = append(sc.Exculpatory, r.id+":ex")
				sc.Score -= exculpatoryDeduction
			}
		}
	}
	if sc.Score < 0 {
		sc.Score = 0
	}
	if sc.Score > 1 {
		sc.Score = 1
	}
	return sc
}
