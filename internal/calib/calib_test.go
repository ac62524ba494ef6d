package calib

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertDecision(t *testing.T, s *store.Store, itemID string, outcome store.Outcome, decidedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.InsertItemIfNew(ctx, &store.ContentItem{
		ItemID: itemID, Source: "r/test", AuthorToken: "u_test", Body: "body " + itemID,
	}); err != nil {
		t.Fatalf("InsertItemIfNew: %v", err)
	}
	if err := s.InsertDetection(ctx, &store.Detection{
		ItemID:     itemID,
		Outcome:    outcome,
		Rationale:  "test rationale",
		Confidence: 0.8,
		DecidedAt:  decidedAt,
	}); err != nil {
		t.Fatalf("InsertDetection: %v", err)
	}
}

func TestSample_PoolsMarksAndAcquittals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()
	insertDecision(t, s, "m1", store.OutcomeMark, now.Add(-3*time.Minute))
	insertDecision(t, s, "m2", store.OutcomeMark, now.Add(-2*time.Minute))
	insertDecision(t, s, "a1", store.OutcomeAcquittal, now.Add(-1*time.Minute))

	c := NewCalibrator(s, zap.NewNop())
	ids, err := c.Sample(ctx, 200, 10)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("sampled %d ids, want all 3 decisions", len(ids))
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["m1"] || !seen["m2"] || !seen["a1"] {
		t.Fatalf("sample %v must pool marks and acquittals", ids)
	}
}

func TestSample_CapsAtCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		insertDecision(t, s, fmt.Sprintf("m%d", i), store.OutcomeMark,
			now.Add(time.Duration(-i)*time.Minute))
	}

	c := NewCalibrator(s, zap.NewNop())
	ids, err := c.Sample(ctx, 200, 5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(ids) != 5 {
		t.Fatalf("sampled %d ids, want cap of 5", len(ids))
	}
}

func TestAddLabel_RejectsUnknownClass(t *testing.T) {
	ctx := context.Background()
	c := NewCalibrator(newTestStore(t), zap.NewNop())
	if err := c.AddLabel(ctx, "m1", "MAYBE", ""); err == nil {
		t.Fatal("expected error for unknown label class")
	}
}

func TestAddLabel_DanglingItemIsAccepted(t *testing.T) {
	ctx := context.Background()
	c := NewCalibrator(newTestStore(t), zap.NewNop())
	if err := c.AddLabel(ctx, "never-ingested", store.LabelFalsePositive, "purged item"); err != nil {
		t.Fatalf("AddLabel: %v", err)
	}
}

func TestComputeMetrics_Ratios(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := NewCalibrator(s, zap.NewNop())

	classes := []struct {
		class string
		n     int
	}{
		{store.LabelTruePositive, 3},
		{store.LabelFalsePositive, 1},
		{store.LabelTrueNegative, 5},
		{store.LabelFalseNegative, 1},
	}
	i := 0
	for _, cl := range classes {
		for j := 0; j < cl.n; j++ {
			i++
			if err := c.AddLabel(ctx, fmt.Sprintf("it%d", i), cl.class, ""); err != nil {
				t.Fatalf("AddLabel: %v", err)
			}
		}
	}

	m, err := c.ComputeMetrics(ctx, 7)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if m.Precision != 0.75 {
		t.Fatalf("precision = %v, want 0.75", m.Precision)
	}
	if m.Recall != 0.75 {
		t.Fatalf("recall = %v, want 0.75", m.Recall)
	}
	if m.F1 != 0.75 {
		t.Fatalf("f1 = %v, want 0.75", m.F1)
	}
	if m.TN != 5 {
		t.Fatalf("tn = %d, want 5", m.TN)
	}
}

func TestComputeMetrics_EmptyWindowIsAllZeros(t *testing.T) {
	ctx := context.Background()
	c := NewCalibrator(newTestStore(t), zap.NewNop())

	m, err := c.ComputeMetrics(ctx, 7)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Fatalf("metrics = %+v, want zeros on empty window", *m)
	}
}

func TestWriteSnapshot_OverwritesSameDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := NewCalibrator(s, zap.NewNop())

	first, err := c.WriteSnapshot(ctx, &Metrics{Precision: 0.5, Recall: 0.5, F1: 0.5, TP: 1, FP: 1, FN: 1})
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := c.WriteSnapshot(ctx, &Metrics{Precision: 0.75, Recall: 0.75, F1: 0.75, TP: 3, FP: 1, TN: 5, FN: 1}); err != nil {
		t.Fatalf("second WriteSnapshot: %v", err)
	}

	snap, err := s.GetSnapshot(ctx, first.Day)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot missing")
	}
	if snap.Precision != 0.75 || snap.TP != 3 || snap.TN != 5 {
		t.Fatalf("snapshot = %+v, want the second write", *snap)
	}
}
