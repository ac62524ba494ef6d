package calib

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// DefaultSinceDays is the trailing label window for metrics.
const DefaultSinceDays = 7

// Metrics is the detector quality over a label window. Every ratio is 0
// when its denominator is 0.
type Metrics struct {
	Precision float64
	Recall    float64
	F1        float64
	TP        int
	FP        int
	TN        int
	FN        int
}

// ComputeMetrics tallies labels created in the trailing sinceDays calendar
// days (inclusive of today) and derives precision, recall, and F1.
func (c *Calibrator) ComputeMetrics(ctx context.Context, sinceDays int) (*Metrics, error) {
	if sinceDays <= 0 {
		sinceDays = DefaultSinceDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays).Format("2006-01-02")

	counts, err := c.store.CountLabelsByClassSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("calib: %w", err)
	}

	m := &Metrics{
		TP: counts[store.LabelTruePositive],
		FP: counts[store.LabelFalsePositive],
		TN: counts[store.LabelTrueNegative],
		FN: counts[store.LabelFalseNegative],
	}
	if m.TP+m.FP > 0 {
		m.Precision = float64(m.TP) / float64(m.TP+m.FP)
	}
	if m.TP+m.FN > 0 {
		m.Recall = float64(m.TP) / float64(m.TP+m.FN)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	c.logger.Debug("computed metrics",
		zap.String("cutoff", cutoff),
		zap.Float64("precision", m.Precision),
		zap.Float64("recall", m.Recall),
		zap.Float64("f1", m.F1),
	)
	return m, nil
}

// WriteSnapshot persists the metrics under today's date, replacing any
// snapshot already written for the day.
func (c *Calibrator) WriteSnapshot(ctx context.Context, m *Metrics) (*store.Snapshot, error) {
	snap := &store.Snapshot{
		Day:       time.Now().UTC().Format("2006-01-02"),
		Precision: m.Precision,
		Recall:    m.Recall,
		F1:        m.F1,
		TP:        m.TP,
		FP:        m.FP,
		TN:        m.TN,
		FN:        m.FN,
	}
	if err := c.store.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("calib: %w", err)
	}
	return snap, nil
}
