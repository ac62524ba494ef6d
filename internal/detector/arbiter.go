package detector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Validation failures surfaced by the arbiter. All of them fail closed:
// nothing is persisted when Record returns an error.
var (
	ErrInvalidConfidence = errors.New("detector: confidence outside [0,1]")
	ErrEmptyRationale    = errors.New("detector: empty rationale")
	ErrAlreadyDecided    = errors.New("detector: item already decided")
)

// Arbiter validates and durably records detection decisions. It does not
// judge content itself; the judgment, rationale, and confidence come from
// the scoring side (or any other reasoning collaborator). The arbiter
// enforces the per-item exclusivity invariant: at most one decision per
// item_id, never both a mark and an acquittal.
type Arbiter struct {
	store  *store.Store
	logger *zap.Logger
}

// NewArbiter creates an Arbiter over the given store.
func NewArbiter(st *store.Store, logger *zap.Logger) *Arbiter {
	return &Arbiter{store: st, logger: logger}
}

// Record validates the decision and persists it. Out-of-range or NaN
// confidence, an empty rationale, and re-submission for a decided item are
// all rejected before any write.
func (a *Arbiter) Record(ctx context.Context, d *store.Detection) error {
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: item %s has confidence %v", ErrInvalidConfidence, d.ItemID, d.Confidence)
	}
	if strings.TrimSpace(d.Rationale) == "" {
		return fmt.Errorf("%w: item %s", ErrEmptyRationale, d.ItemID)
	}

	decided, err := a.store.HasDecision(ctx, d.ItemID)
	if err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	if decided {
		return fmt.Errorf("%w: item %s", ErrAlreadyDecided, d.ItemID)
	}

	if err := a.store.InsertDetection(ctx, d); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	a.logger.Debug("detection recorded",
		zap.String("item_id", d.ItemID),
		zap.String("outcome", d.Outcome.String()),
		zap.Float64("confidence", d.Confidence),
	)
	return nil
}
