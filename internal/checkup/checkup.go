// Package checkup runs the acceptance checklist over a populated database:
// configs parse, the ledger has eligible rows, the detector covered them,
// and the decision invariants hold. Each check reports independently; there
// is no shared pass/fail state.
package checkup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Result is one checklist entry.
type Result struct {
	Name    string
	OK      bool
	Details string
}

// Report is the full checklist outcome.
type Report struct {
	Results []Result
}

// AllOK reports whether every check passed.
func (r *Report) AllOK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// Failed returns the names of failing checks.
func (r *Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.OK {
			names = append(names, res.Name)
		}
	}
	return names
}

// Checker runs the checklist.
type Checker struct {
	store     *store.Store
	configDir string
	logger    *zap.Logger
}

// NewChecker wires a Checker over the store and the config directory.
func NewChecker(st *store.Store, configDir string, logger *zap.Logger) *Checker {
	return &Checker{store: st, configDir: configDir, logger: logger}
}

// Run executes every check and returns the report. Checks never abort the
// run; a failing check is a report entry, not an error. Run only errors on
// infrastructure failures such as an unreachable database.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	report.Results = append(report.Results, c.checkConfigs())

	items, err := c.store.CountItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	report.Results = append(report.Results, Result{
		Name:    "ledger populated",
		OK:      items > 0,
		Details: fmt.Sprintf("%d content items", items),
	})

	empty, err := c.store.EmptyKeywordHitCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	report.Results = append(report.Results, Result{
		Name:    "keyword hits recorded",
		OK:      empty == 0,
		Details: fmt.Sprintf("%d rows with empty keywords_hit", empty),
	})

	undecided, err := c.store.UndecidedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	marks, acquittals, err := c.store.CountDetections(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	report.Results = append(report.Results, Result{
		Name: "detector coverage",
		OK:   len(undecided) == 0 || marks+acquittals > 0,
		Details: fmt.Sprintf("%d undecided, %d marks, %d acquittals",
			len(undecided), marks, acquittals),
	})

	invalid, err := c.store.InvalidMarkCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	report.Results = append(report.Results, Result{
		Name:    "marks well formed",
		OK:      invalid == 0,
		Details: fmt.Sprintf("%d marks with empty rationale or out-of-range confidence", invalid),
	})

	doubled, err := c.store.DoubleDecidedItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	details := fmt.Sprintf("%d items decided both ways", len(doubled))
	if len(doubled) > 0 {
		details += ": " + strings.Join(doubled, ", ")
	}
	report.Results = append(report.Results, Result{
		Name:    "decisions exclusive",
		OK:      len(doubled) == 0,
		Details: details,
	})

	badSnaps, err := c.store.InvalidSnapshotCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkup: %w", err)
	}
	report.Results = append(report.Results, Result{
		Name:    "snapshots well formed",
		OK:      badSnaps == 0,
		Details: fmt.Sprintf("%d snapshots with out-of-range values", badSnaps),
	})

	for _, res := range report.Results {
		c.logger.Info("checkup result",
			zap.String("check", res.Name),
			zap.Bool("ok", res.OK),
			zap.String("details", res.Details),
		)
	}
	return report, nil
}

func (c *Checker) checkConfigs() Result {
	if _, err := config.Load(c.configDir); err != nil {
		return Result{Name: "configs parseable", OK: false, Details: err.Error()}
	}
	return Result{Name: "configs parseable", OK: true, Details: "all config files load"}
}
