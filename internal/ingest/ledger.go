package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnson-liu-code/InquisitorNet/internal/match"
	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Ledger runs the ingest pipeline: source -> discard predicates ->
// keyword matcher -> content ledger.
type Ledger struct {
	source   Source
	discards []match.Predicate
	matcher  *match.Matcher
	store    *store.Store
	logger   *zap.Logger
}

// NewLedger wires one ingest run.
func NewLedger(source Source, discards []match.Predicate, matcher *match.Matcher, st *store.Store, logger *zap.Logger) *Ledger {
	return &Ledger{
		source:   source,
		discards: discards,
		matcher:  matcher,
		store:    st,
		logger:   logger,
	}
}

// Summary counts what one ingest run did with the source stream.
type Summary struct {
	Processed  int // records read from the source
	Kept       int // new ledger rows written
	Dropped    int // discarded by predicate or not matched
	Duplicates int // item_id already in the ledger
}

// Run consumes the source, writing all surviving records in one
// transaction. Replaying the same stream only adds rows for unseen ids.
func (l *Ledger) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	logger := l.logger.With(zap.String("run_id", runID))

	records, err := l.source.Records()
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	batch, err := l.store.BeginItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer batch.Rollback() //nolint:errcheck

	sum := &Summary{}
	for _, rec := range records {
		sum.Processed++

		fields := match.Fields{
			Body:       rec.Body,
			Source:     rec.Subreddit,
			Author:     rec.Author,
			CreatedUTC: rec.CreatedUTC,
		}
		if match.Discard(l.discards, fields, logger) {
			sum.Dropped++
			continue
		}

		keep, hits := l.matcher.Evaluate(rec.Body)
		if !keep {
			sum.Dropped++
			continue
		}

		inserted, err := batch.InsertIfNew(ctx, &store.ContentItem{
			ItemID:      rec.ID,
			Source:      rec.Subreddit,
			AuthorToken: AnonymizeAuthor(rec.Author),
			Body:        rec.Body,
			CreatedUTC:  rec.CreatedUTC,
			ParentID:    rec.ParentID,
			LinkID:      rec.LinkID,
			Permalink:   rec.Permalink,
			KeywordsHit: hits,
			PostMeta:    rec.PostMeta,
		})
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
		if inserted {
			sum.Kept++
		} else {
			sum.Duplicates++
		}
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	logger.Info("ingest run complete",
		zap.Int("processed", sum.Processed),
		zap.Int("kept", sum.Kept),
		zap.Int("dropped", sum.Dropped),
		zap.Int("duplicates", sum.Duplicates),
	)
	return sum, nil
}
