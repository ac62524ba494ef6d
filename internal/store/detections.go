package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome is the detector verdict for a single content item. The two
// variants are mutually exclusive: an item is either marked or acquitted,
// never both.
type Outcome int

const (
	OutcomeMark Outcome = iota + 1
	OutcomeAcquittal
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeMark:
		return "mark"
	case OutcomeAcquittal:
		return "acquittal"
	default:
		return "unspecified"
	}
}

// Detection is one detector decision: the outcome tag plus the rationale
// and confidence supplied by the reasoning collaborator. Rows are written
// once and never updated.
type Detection struct {
	ItemID     string
	Outcome    Outcome
	Rationale  string
	Confidence float64
	DecidedAt  time.Time
}

func detectionTable(o Outcome) (string, error) {
	switch o {
	case OutcomeMark:
		return "detection_marks", nil
	case OutcomeAcquittal:
		return "detection_acquittals", nil
	default:
		return "", fmt.Errorf("unknown outcome %d", int(o))
	}
}

// InsertDetection persists a decision into the table matching its outcome.
// Validation (confidence range, rationale, exclusivity) is the arbiter's
// job; this only writes.
func (s *Store) InsertDetection(ctx context.Context, d *Detection) error {
	table, err := detectionTable(d.Outcome)
	if err != nil {
		return fmt.Errorf("InsertDetection: %w", err)
	}
	decidedAt := d.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (item_id, rationale, confidence, decided_at)
		VALUES ($1, $2, $3, $4)`,
		d.ItemID, d.Rationale, d.Confidence, decidedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("InsertDetection: %w", err)
	}
	return nil
}

// HasDecision reports whether the item already carries a mark or an
// acquittal.
func (s *Store) HasDecision(ctx context.Context, itemID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM detection_marks WHERE item_id = $1)
		     + (SELECT COUNT(*) FROM detection_acquittals WHERE item_id = $1)`,
		itemID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("HasDecision: %w", err)
	}
	return n > 0, nil
}

// GetDetection returns the decision for an item, or nil if undecided.
func (s *Store) GetDetection(ctx context.Context, itemID string) (*Detection, error) {
	for _, outcome := range []Outcome{OutcomeMark, OutcomeAcquittal} {
		table, _ := detectionTable(outcome)
		d := Detection{ItemID: itemID, Outcome: outcome}
		var decidedAt string
		err := s.db.QueryRowContext(ctx,
			`SELECT rationale, confidence, decided_at FROM `+table+` WHERE item_id = $1`,
			itemID).Scan(&d.Rationale, &d.Confidence, &decidedAt)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("GetDetection: %w", err)
		}
		if d.DecidedAt, err = time.Parse(timeFormat, decidedAt); err != nil {
			return nil, fmt.Errorf("GetDetection: %w", err)
		}
		return &d, nil
	}
	return nil, nil
}

// RecentDecisions returns the item ids of the most recently decided items
// (marks and acquittals together), newest first, limited to window.
func (s *Store) RecentDecisions(ctx context.Context, window int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM (
			SELECT item_id, decided_at FROM detection_marks
			UNION ALL
			SELECT item_id, decided_at FROM detection_acquittals
		) d
		ORDER BY decided_at DESC, item_id
		LIMIT $1`, window)
	if err != nil {
		return nil, fmt.Errorf("RecentDecisions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("RecentDecisions: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountDetections returns the number of marks and acquittals.
func (s *Store) CountDetections(ctx context.Context) (marks, acquittals int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM detection_marks),
		       (SELECT COUNT(*) FROM detection_acquittals)`).Scan(&marks, &acquittals)
	if err != nil {
		return 0, 0, fmt.Errorf("CountDetections: %w", err)
	}
	return marks, acquittals, nil
}

// DoubleDecidedItemIDs returns item ids present in both detection tables.
// A non-empty result means the exclusivity invariant was violated by an
// out-of-band write; the verify job surfaces it.
func (s *Store) DoubleDecidedItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.item_id FROM detection_marks m
		JOIN detection_acquittals a ON a.item_id = m.item_id
		ORDER BY m.item_id`)
	if err != nil {
		return nil, fmt.Errorf("DoubleDecidedItemIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DoubleDecidedItemIDs: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InvalidMarkCount counts mark rows whose rationale is empty or whose
// confidence falls outside [0,1]. Used by the verify job.
func (s *Store) InvalidMarkCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM detection_marks
		WHERE TRIM(rationale) = '' OR confidence < 0 OR confidence > 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("InvalidMarkCount: %w", err)
	}
	return n, nil
}
