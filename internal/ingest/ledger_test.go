package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/match"
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

type sliceSource struct{ records []Record }

func (s *sliceSource) Records() ([]Record, error) { return s.records, nil }

func mustMatcher(t *testing.T, include, exclude []string) *match.Matcher {
	t.Helper()
	m, err := match.Compile(include, exclude, match.PolicyAny)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return m
}

func TestLedger_KeepsMatchesAndDropsRest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := &sliceSource{records: []Record{
		{ID: "a1", Subreddit: "r/test", Author: "alice", Body: "the xeno threat grows"},
		{ID: "a2", Subreddit: "r/test", Author: "bob", Body: "nothing to see here"},
		{ID: "a3", Subreddit: "r/test", Author: "carol", Body: "heresy in the ranks"},
	}}
	l := NewLedger(src, nil, mustMatcher(t, []string{"xeno", "heresy"}, nil), s, zap.NewNop())

	sum, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 3 || sum.Kept != 2 || sum.Dropped != 1 || sum.Duplicates != 0 {
		t.Fatalf("summary = %+v, want processed 3, kept 2, dropped 1", *sum)
	}

	item, err := s.GetItem(ctx, "a1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item == nil {
		t.Fatal("kept item a1 missing from ledger")
	}
	if len(item.KeywordsHit) != 1 || item.KeywordsHit[0] != "xeno" {
		t.Fatalf("keywords_hit = %v, want [xeno]", item.KeywordsHit)
	}
	if item.AuthorToken == "alice" || !strings.HasPrefix(item.AuthorToken, "u_") {
		t.Fatalf("author token %q must be anonymized", item.AuthorToken)
	}
}

func TestLedger_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := &sliceSource{records: []Record{
		{ID: "a1", Subreddit: "r/test", Author: "alice", Body: "xeno sighting"},
	}}
	l := NewLedger(src, nil, mustMatcher(t, []string{"xeno"}, nil), s, zap.NewNop())

	if _, err := l.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	sum, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if sum.Kept != 0 || sum.Duplicates != 1 {
		t.Fatalf("replay summary = %+v, want kept 0, duplicates 1", *sum)
	}

	n, err := s.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 1 {
		t.Fatalf("ledger size = %d, want 1 after replay", n)
	}
}

func TestLedger_DiscardPredicatesRunFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := &sliceSource{records: []Record{
		{ID: "a1", Subreddit: "r/test", Author: "alice", Body: "xeno"},
		{ID: "a2", Subreddit: "r/test", Author: "bob", Body: "a much longer xeno report with detail"},
	}}
	discards := []match.Predicate{
		{Field: "body", Op: match.OpLenLT, Value: 10},
	}
	l := NewLedger(src, discards, mustMatcher(t, []string{"xeno"}, nil), s, zap.NewNop())

	sum, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Kept != 1 || sum.Dropped != 1 {
		t.Fatalf("summary = %+v, want the short body discarded before matching", *sum)
	}
	item, err := s.GetItem(ctx, "a1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item != nil {
		t.Fatal("short item a1 should have been discarded")
	}
}

func TestFilterSource_AllowAndAvoid(t *testing.T) {
	src := &FilterSource{
		Inner: &sliceSource{records: []Record{
			{ID: "a1", Subreddit: "r/allowed", Body: "xeno"},
			{ID: "a2", Subreddit: "r/avoided", Body: "xeno"},
			{ID: "a3", Subreddit: "r/other", Body: "xeno"},
		}},
		Allow: []string{"r/allowed", "r/avoided"},
		Avoid: []string{"r/avoided"},
	}

	records, err := src.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a1" {
		t.Fatalf("records = %v, want only the allowed forum, avoid winning over allow", records)
	}
}

func TestFilterSource_EmptyAllowAdmitsAll(t *testing.T) {
	src := &FilterSource{
		Inner: &sliceSource{records: []Record{
			{ID: "a1", Subreddit: "r/anything", Body: "xeno"},
		}},
	}

	records, err := src.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 with no lists configured", len(records))
	}
}

func TestReadRecords_SkipsInvalidLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id": "a1", "body": "xeno", "author": "alice"}`,
		`garbage`,
		`{"body": "missing id"}`,
		``,
		`{"id": "a2", "body": "heresy"}`,
	}, "\n")

	records, err := readRecords(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 valid lines", len(records))
	}
	if records[0].ID != "a1" || records[1].ID != "a2" {
		t.Fatalf("record ids = %q, %q", records[0].ID, records[1].ID)
	}
}

func TestAnonymizeAuthor_StableAndOpaque(t *testing.T) {
	a := AnonymizeAuthor("alice")
	b := AnonymizeAuthor("alice")
	c := AnonymizeAuthor("bob")

	if a != b {
		t.Fatal("same author must map to the same token")
	}
	if a == c {
		t.Fatal("different authors must map to different tokens")
	}
	if strings.Contains(a, "alice") {
		t.Fatalf("token %q leaks the raw author name", a)
	}
	if AnonymizeAuthor("") != "u_anonymous" {
		t.Fatal("empty author must map to the anonymous token")
	}
}
