package detector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Runner drives one detect pass: score every undecided ledger item and
// record a mark or acquittal for those clearing a threshold. Items landing
// between the thresholds are held for a later run, so repeated passes
// converge on full coverage without ever re-deciding an item.
type Runner struct {
	rules    *RuleSet
	arbiter  *Arbiter
	store    *store.Store
	reasoner RationaleGenerator
	logger   *zap.Logger
}

// NewRunner wires a detect pass. A nil reasoner falls back to the
// deterministic HeuristicReasoner.
func NewRunner(rules *RuleSet, st *store.Store, reasoner RationaleGenerator, logger *zap.Logger) *Runner {
	if reasoner == nil {
		reasoner = HeuristicReasoner{}
	}
	return &Runner{
		rules:    rules,
		arbiter:  NewArbiter(st, logger),
		store:    st,
		reasoner: reasoner,
		logger:   logger,
	}
}

// Summary is the per-run outcome tally.
type Summary struct {
	Marked    int
	Acquitted int
	Held      int
}

// Run scores and decides every undecided item. Validation failures are
// hard errors: a decision that cannot be recorded aborts the pass rather
// than being silently dropped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	items, err := r.store.UndecidedItems(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("detector run: %w", err)
	}

	th := r.rules.Thresholds()
	var sum Summary
	for _, item := range items {
		sc := r.rules.Score(item.Body)

		var d *store.Detection
		switch {
		case sc.Score >= th.Mark:
			d = &store.Detection{
				ItemID:     item.ItemID,
				Outcome:    store.OutcomeMark,
				Rationale:  r.reasoner.Rationale(sc.Score, sc.Matched, nil),
				Confidence: sc.Score,
			}
			sum.Marked++
		case sc.Score <= th.Acquit:
			d = &store.Detection{
				ItemID:     item.ItemID,
				Outcome:    store.OutcomeAcquittal,
				Rationale:  r.reasoner.Rationale(sc.Score, nil, sc.Exculpatory),
				Confidence: 1 - sc.Score,
			}
			sum.Acquitted++
		default:
			sum.Held++
			continue
		}

		if err := r.arbiter.Record(ctx, d); err != nil {
			return sum, fmt.Errorf("detector run: %w", err)
		}
	}

	r.logger.Info("detector pass complete",
		zap.Int("marked", sum.Marked),
		zap.Int("acquitted", sum.Acquitted),
		zap.Int("held", sum.Held),
	)
	return sum, nil
}
