// Package match implements the keyword matcher that decides which candidate
// items enter the ledger: include/exclude regex sets under an any/all
// policy, plus a small whitelisted predicate language for unconditional
// discards.
package match

import (
	"fmt"
	"regexp"
)

// Policy selects how include rules combine.
type Policy string

const (
	// PolicyAny keeps an item when at least one include rule matches.
	PolicyAny Policy = "any"
	// PolicyAll keeps an item only when every include rule matches.
	PolicyAll Policy = "all"
)

type includeRule struct {
	id string // the raw pattern, reported in keywords_hit
	re *regexp.Regexp
}

// Matcher is a compiled, stateless rule set. Compile once per run; Evaluate
// has no side effects and is safe for concurrent use.
type Matcher struct {
	include []includeRule
	exclude []*regexp.Regexp
	policy  Policy
}

// Compile builds a Matcher from raw patterns. An invalid pattern or policy
// is a configuration error and aborts the run.
func Compile(include, exclude []string, policy Policy) (*Matcher, error) {
	if policy == "" {
		policy = PolicyAny
	}
	if policy != PolicyAny && policy != PolicyAll {
		return nil, fmt.Errorf("match: unknown policy %q", policy)
	}

	m := &Matcher{policy: policy}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("match: include pattern %q: %w", p, err)
		}
		m.include = append(m.include, includeRule{id: p, re: re})
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("match: exclude pattern %q: %w", p, err)
		}
		m.exclude = append(m.exclude, re)
	}
	return m, nil
}

// Evaluate applies the rule set to a body of text. With an empty include
// set, every body passes the include side. Any exclude match vetoes the
// item regardless of policy.
//
// When the item is kept, hits lists every include rule that independently
// matched, in rule order — under PolicyAll as well, where a single
// non-matching rule would have vetoed the item. The complete hit list is
// what lands in keywords_hit for auditing.
func (m *Matcher) Evaluate(body string) (keep bool, hits []string) {
	for _, re := range m.exclude {
		if re.MatchString(body) {
			return false, nil
		}
	}

	matched := 0
	for _, r := range m.include {
		if r.re.MatchString(body) {
			matched++
		}
	}

	switch {
	case len(m.include) == 0:
		keep = true
	case m.policy == PolicyAll:
		keep = matched == len(m.include)
	default:
		keep = matched > 0
	}
	if !keep {
		return false, nil
	}

	for _, r := range m.include {
		if r.re.MatchString(body) {
			hits = append(hits, r.id)
		}
	}
	return true, hits
}

// Policy returns the compiled policy.
func (m *Matcher) Policy() Policy {
	return m.policy
}
