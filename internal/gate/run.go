package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/audit"
	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Gate evaluates drafts against a compiled rule set and persists one
// decision row per draft.
type Gate struct {
	rules    []Rule
	blockIf  []string
	store    *store.Store
	reasoner ReasonGenerator
	events   audit.EventWriter
	logger   *zap.Logger
}

// NewGate builds a Gate. A nil reasoner defaults to StubReasoner; a nil
// event writer disables the analytics mirror.
func NewGate(rules []Rule, policy DecisionPolicy, st *store.Store, reasoner ReasonGenerator, events audit.EventWriter, logger *zap.Logger) *Gate {
	if reasoner == nil {
		reasoner = StubReasoner{}
	}
	return &Gate{
		rules:    rules,
		blockIf:  policy.BlockIf,
		store:    st,
		reasoner: reasoner,
		events:   events,
		logger:   logger,
	}
}

// Decision is the outcome of evaluating one draft.
type Decision struct {
	CheckID string
	Allow   bool
	Flags   []string
	Reason  string
	Hits    map[string][]string
}

// Evaluate runs the checks over one draft, persists the decision, and
// returns it. Each decision commits on its own so a mid-run crash keeps
// everything decided so far.
func (g *Gate) Evaluate(ctx context.Context, d Draft) (*Decision, error) {
	start := time.Now()

	hits := RunChecks(d.Text, g.rules)
	allow, flags := Decide(g.blockIf, g.rules, hits)
	reason := g.reasoner.Reason(allow, flags)

	pc := &store.PolicyCheck{
		DraftScope: d.Scope,
		DraftText:  d.Text,
		Allow:      allow,
		Flags:      flags,
		Reasons:    reason,
		RawMatch:   hits,
	}
	if err := g.store.InsertPolicyCheck(ctx, pc); err != nil {
		return nil, fmt.Errorf("gate: persisting decision: %w", err)
	}

	if g.events != nil {
		g.events.Write(&audit.Event{
			CheckID:     pc.ID,
			Scope:       d.Scope,
			Allow:       allow,
			Flags:       flags,
			Reason:      reason,
			TextPreview: audit.TruncateText(d.Text, audit.PreviewLength),
			TextHash:    audit.HashText(d.Text),
			TextSize:    uint32(len(d.Text)),
			LatencyMs:   float32(time.Since(start).Microseconds()) / 1000.0,
			CreatedAt:   pc.CreatedAt,
		})
	}

	g.logger.Debug("draft evaluated",
		zap.String("check_id", pc.ID),
		zap.String("scope", d.Scope),
		zap.Bool("allow", allow),
		zap.Strings("flags", flags),
	)

	return &Decision{
		CheckID: pc.ID,
		Allow:   allow,
		Flags:   flags,
		Reason:  reason,
		Hits:    hits,
	}, nil
}

// Summary counts the outcomes of one gate run.
type Summary struct {
	Evaluated int
	Allowed   int
	Blocked   int
}

// Run evaluates every draft in order. A persistence failure aborts the run;
// decisions already written stay written.
func (g *Gate) Run(ctx context.Context, drafts []Draft) (*Summary, error) {
	sum := &Summary{}
	for _, d := range drafts {
		dec, err := g.Evaluate(ctx, d)
		if err != nil {
			return sum, err
		}
		sum.Evaluated++
		if dec.Allow {
			sum.Allowed++
		} else {
			sum.Blocked++
		}
	}
	g.logger.Info("gate run complete",
		zap.Int("evaluated", sum.Evaluated),
		zap.Int("allowed", sum.Allowed),
		zap.Int("blocked", sum.Blocked),
	)
	return sum, nil
}
