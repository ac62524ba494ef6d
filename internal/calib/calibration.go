// Package calib closes the feedback loop: sample recent decisions for human
// review, record ground-truth labels, and compute precision/recall/F1 over
// the labeled window.
package calib

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// DefaultWindow is how many of the most recent decisions the sampler draws
// from.
const DefaultWindow = 200

// Calibrator samples decisions and records labels.
type Calibrator struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCalibrator wires a Calibrator over the store.
func NewCalibrator(st *store.Store, logger *zap.Logger) *Calibrator {
	return &Calibrator{store: st, logger: logger}
}

// Sample returns up to count item ids drawn uniformly from the window most
// recent decisions, marks and acquittals pooled. Fewer decisions than count
// returns them all.
func (c *Calibrator) Sample(ctx context.Context, window, count int) ([]string, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	ids, err := c.store.RecentDecisions(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("calib: %w", err)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if count > 0 && len(ids) > count {
		ids = ids[:count]
	}
	c.logger.Debug("sampled decisions for review",
		zap.Int("window", window), zap.Int("sampled", len(ids)))
	return ids, nil
}

// AddLabel appends one ground-truth annotation. Labels are append-only and
// the item id may dangle; the metrics job counts rows, not joins.
func (c *Calibrator) AddLabel(ctx context.Context, itemID, class, notes string) error {
	switch class {
	case store.LabelTruePositive, store.LabelFalsePositive,
		store.LabelTrueNegative, store.LabelFalseNegative:
	default:
		return fmt.Errorf("calib: unknown label class %q", class)
	}
	if err := c.store.InsertLabel(ctx, &store.Label{
		ItemID: itemID,
		Label:  class,
		Notes:  notes,
	}); err != nil {
		return fmt.Errorf("calib: %w", err)
	}
	return nil
}
