package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Label classes for calibration. The stored value is the short token.
const (
	LabelTruePositive  = "TP"
	LabelFalsePositive = "FP"
	LabelTrueNegative  = "TN"
	LabelFalseNegative = "FN"
)

// Label is one ground-truth annotation for a detected item. The table is
// append-only: re-labeling and multiple annotators produce multiple rows,
// and item_id may dangle if the referenced item was purged.
type Label struct {
	ID        string
	ItemID    string
	Label     string
	Notes     string
	CreatedAt time.Time
}

// InsertLabel appends one label row.
func (s *Store) InsertLabel(ctx context.Context, l *Label) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (id, item_id, label, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.ItemID, l.Label, l.Notes, l.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("InsertLabel: %w", err)
	}
	return nil
}

// CountLabelsByClassSince returns label-class counts for labels created on
// or after the cutoff calendar date (inclusive, ISO yyyy-mm-dd). RFC 3339
// timestamps start with the date, so the substring compare is a calendar
// compare.
func (s *Store) CountLabelsByClassSince(ctx context.Context, cutoff string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, COUNT(*) FROM labels
		WHERE SUBSTR(created_at, 1, 10) >= $1
		GROUP BY label`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("CountLabelsByClassSince: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, fmt.Errorf("CountLabelsByClassSince: %w", err)
		}
		counts[class] = n
	}
	return counts, rows.Err()
}
