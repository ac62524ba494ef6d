package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PolicyCheck is one policy-gate decision over a draft. The table is an
// append-only audit log: re-evaluating identical text writes a new row so
// historical decisions are preserved.
type PolicyCheck struct {
	ID         string
	DraftScope string
	DraftText  string
	Allow      bool
	Flags      []string            // triggered rule ids, in rule order
	Reasons    string              // synthesized reason text
	RawMatch   map[string][]string // rule id -> matched substrings, text order
	CreatedAt  time.Time
}

// InsertPolicyCheck appends one audit row, committing immediately so a
// mid-run crash preserves every decision made so far.
func (s *Store) InsertPolicyCheck(ctx context.Context, pc *PolicyCheck) error {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	if pc.CreatedAt.IsZero() {
		pc.CreatedAt = time.Now().UTC()
	}
	flags, err := json.Marshal(pc.Flags)
	if err != nil {
		return fmt.Errorf("InsertPolicyCheck: %w", err)
	}
	raw, err := json.Marshal(pc.RawMatch)
	if err != nil {
		return fmt.Errorf("InsertPolicyCheck: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_checks (id, draft_scope, draft_text, allow, flags, reasons, raw_match, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pc.ID, pc.DraftScope, pc.DraftText, pc.Allow, string(flags), pc.Reasons,
		string(raw), pc.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("InsertPolicyCheck: %w", err)
	}
	return nil
}

// CountPolicyChecks returns the audit log size.
func (s *Store) CountPolicyChecks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM policy_checks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountPolicyChecks: %w", err)
	}
	return n, nil
}
