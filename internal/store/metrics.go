package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Snapshot is one metrics_daily row: detector quality over the trailing
// label window, keyed by calendar day. Recomputing a day replaces it.
type Snapshot struct {
	Day       string // ISO yyyy-mm-dd
	Precision float64
	Recall    float64
	F1        float64
	TP        int
	FP        int
	TN        int
	FN        int
}

// UpsertSnapshot writes the snapshot for its day, overwriting any prior
// row so the metrics job is safe to re-invoke.
func (s *Store) UpsertSnapshot(ctx context.Context, snap *Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_daily (day, "precision", recall, f1, tp, fp, tn, fn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (day) DO UPDATE SET
			"precision" = excluded."precision",
			recall      = excluded.recall,
			f1          = excluded.f1,
			tp          = excluded.tp,
			fp          = excluded.fp,
			tn          = excluded.tn,
			fn          = excluded.fn`,
		snap.Day, snap.Precision, snap.Recall, snap.F1,
		snap.TP, snap.FP, snap.TN, snap.FN)
	if err != nil {
		return fmt.Errorf("UpsertSnapshot: %w", err)
	}
	return nil
}

// InvalidSnapshotCount counts metrics_daily rows with out-of-range ratios
// or negative counts. Zero on a healthy database.
func (s *Store) InvalidSnapshotCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM metrics_daily
		WHERE "precision" < 0 OR "precision" > 1
		   OR recall < 0 OR recall > 1
		   OR f1 < 0 OR f1 > 1
		   OR tp < 0 OR fp < 0 OR tn < 0 OR fn < 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("InvalidSnapshotCount: %w", err)
	}
	return n, nil
}

// GetSnapshot returns the snapshot for a day, or nil if none was written.
func (s *Store) GetSnapshot(ctx context.Context, day string) (*Snapshot, error) {
	snap := Snapshot{Day: day}
	err := s.db.QueryRowContext(ctx, `
		SELECT "precision", recall, f1, tp, fp, tn, fn
		FROM metrics_daily WHERE day = $1`, day,
	).Scan(&snap.Precision, &snap.Recall, &snap.F1,
		&snap.TP, &snap.FP, &snap.TN, &snap.FN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSnapshot: %w", err)
	}
	return &snap, nil
}
