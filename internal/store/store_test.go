package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))
}

func TestInsertItemIfNew_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	item := &ContentItem{
		ItemID:      "t1_x1",
		Source:      "r/test",
		AuthorToken: "u_abc",
		Body:        "a suspicious body",
		KeywordsHit: []string{"xeno"},
		PostMeta:    map[string]any{"score": float64(10)},
	}
	inserted, err := s.InsertItemIfNew(ctx, item)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertItemIfNew(ctx, item)
	require.NoError(t, err)
	assert.False(t, inserted, "second insert of the same id must be a no-op")

	n, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetItem_RoundTripAndMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertItemIfNew(ctx, &ContentItem{
		ItemID:      "t1_x1",
		Source:      "r/test",
		AuthorToken: "u_abc",
		Body:        "a suspicious body",
		CreatedUTC:  "2026-08-20T14:02:11Z",
		KeywordsHit: []string{"xeno", "heresy"},
		PostMeta:    map[string]any{"score": float64(42)},
	})
	require.NoError(t, err)

	got, err := s.GetItem(ctx, "t1_x1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a suspicious body", got.Body)
	assert.Equal(t, []string{"xeno", "heresy"}, got.KeywordsHit)
	assert.Equal(t, float64(42), got.PostMeta["score"])
	assert.False(t, got.InsertedAt.IsZero())

	missing, err := s.GetItem(ctx, "t1_nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing item is nil, not an error")
}

func TestItemBatch_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	batch, err := s.BeginItems(ctx)
	require.NoError(t, err)
	_, err = batch.InsertIfNew(ctx, &ContentItem{
		ItemID: "t1_x1", Source: "r/test", AuthorToken: "u_abc", Body: "body",
	})
	require.NoError(t, err)
	require.NoError(t, batch.Rollback())

	n, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUndecidedItems_ExcludesBothOutcomes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.InsertItemIfNew(ctx, &ContentItem{
			ItemID: id, Source: "r/test", AuthorToken: "u_abc", Body: "body " + id,
		})
		require.NoError(t, err)
	}
	require.NoError(t, s.InsertDetection(ctx, &Detection{
		ItemID: "a", Outcome: OutcomeMark, Rationale: "seen", Confidence: 0.9,
	}))
	require.NoError(t, s.InsertDetection(ctx, &Detection{
		ItemID: "b", Outcome: OutcomeAcquittal, Rationale: "benign", Confidence: 0.8,
	}))

	items, err := s.UndecidedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ItemID)
}

func TestRecentDecisions_NewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	decide := func(id string, outcome Outcome, age time.Duration) {
		_, err := s.InsertItemIfNew(ctx, &ContentItem{
			ItemID: id, Source: "r/test", AuthorToken: "u_abc", Body: "body " + id,
		})
		require.NoError(t, err)
		require.NoError(t, s.InsertDetection(ctx, &Detection{
			ItemID: id, Outcome: outcome, Rationale: "r", Confidence: 0.7,
			DecidedAt: now.Add(-age),
		}))
	}
	decide("old", OutcomeMark, 3*time.Hour)
	decide("mid", OutcomeAcquittal, 2*time.Hour)
	decide("new", OutcomeMark, 1*time.Hour)

	ids, err := s.RecentDecisions(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid"}, ids)
}

func TestUpsertSnapshot_ReplacesDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertSnapshot(ctx, &Snapshot{
		Day: "2026-08-23", Precision: 0.5, Recall: 0.5, F1: 0.5, TP: 1, FP: 1,
	}))
	require.NoError(t, s.UpsertSnapshot(ctx, &Snapshot{
		Day: "2026-08-23", Precision: 0.8, Recall: 0.6, F1: 0.685, TP: 4, FP: 1, FN: 2,
	}))

	snap, err := s.GetSnapshot(ctx, "2026-08-23")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 0.8, snap.Precision)
	assert.Equal(t, 4, snap.TP)

	none, err := s.GetSnapshot(ctx, "2026-08-24")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDoubleDecidedItemIDs_FindsConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertItemIfNew(ctx, &ContentItem{
		ItemID: "a", Source: "r/test", AuthorToken: "u_abc", Body: "body",
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertDetection(ctx, &Detection{
		ItemID: "a", Outcome: OutcomeMark, Rationale: "r", Confidence: 0.9,
	}))
	require.NoError(t, s.InsertDetection(ctx, &Detection{
		ItemID: "a", Outcome: OutcomeAcquittal, Rationale: "r", Confidence: 0.9,
	}))

	ids, err := s.DoubleDecidedItemIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestCountLabelsByClassSince_CutoffIsInclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.InsertLabel(ctx, &Label{
		ItemID: "a", Label: LabelTruePositive, CreatedAt: now,
	}))
	require.NoError(t, s.InsertLabel(ctx, &Label{
		ItemID: "b", Label: LabelFalsePositive, CreatedAt: now.AddDate(0, 0, -30),
	}))

	counts, err := s.CountLabelsByClassSince(ctx, now.AddDate(0, 0, -7).Format("2006-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, counts[LabelTruePositive])
	assert.Zero(t, counts[LabelFalsePositive], "labels before the cutoff are excluded")
}
