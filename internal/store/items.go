package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ContentItem is a row in the content_items ledger. Items are created once
// at ingestion and never mutated.
type ContentItem struct {
	ItemID      string
	Source      string // forum/subreddit label
	AuthorToken string // anonymized, never the raw author name
	Body        string
	CreatedUTC  string
	ParentID    string
	LinkID      string
	Permalink   string
	KeywordsHit []string // include-rule patterns that matched at ingest
	PostMeta    map[string]any
	InsertedAt  time.Time
}

// ItemBatch accumulates ledger inserts inside a single transaction. The
// ingest job commits once after the whole source stream is consumed;
// insertion is idempotent, so a crashed run is safe to replay.
type ItemBatch struct {
	tx *sql.Tx
}

// BeginItems starts a ledger insert batch.
func (s *Store) BeginItems(ctx context.Context) (*ItemBatch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BeginItems: %w", err)
	}
	return &ItemBatch{tx: tx}, nil
}

// InsertIfNew inserts the item unless its item_id is already present.
// Returns true when a new row was written. A duplicate is not an error.
func (b *ItemBatch) InsertIfNew(ctx context.Context, item *ContentItem) (bool, error) {
	hits, err := json.Marshal(item.KeywordsHit)
	if err != nil {
		return false, fmt.Errorf("InsertIfNew: %w", err)
	}
	meta, err := json.Marshal(item.PostMeta)
	if err != nil {
		return false, fmt.Errorf("InsertIfNew: %w", err)
	}
	insertedAt := item.InsertedAt
	if insertedAt.IsZero() {
		insertedAt = time.Now().UTC()
	}

	res, err := b.tx.ExecContext(ctx, `
		INSERT INTO content_items (
			item_id, source, author_token, body, created_utc,
			parent_id, link_id, permalink, keywords_hit, post_meta, inserted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (item_id) DO NOTHING`,
		item.ItemID, item.Source, item.AuthorToken, item.Body, item.CreatedUTC,
		item.ParentID, item.LinkID, item.Permalink, string(hits), string(meta),
		insertedAt.Format(timeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("InsertIfNew: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertIfNew: %w", err)
	}
	return n > 0, nil
}

// Commit commits the batch.
func (b *ItemBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("ItemBatch.Commit: %w", err)
	}
	return nil
}

// Rollback abandons the batch. Safe to call after Commit.
func (b *ItemBatch) Rollback() error {
	err := b.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// InsertItemIfNew is the single-row, autocommit variant of a batch insert.
func (s *Store) InsertItemIfNew(ctx context.Context, item *ContentItem) (bool, error) {
	batch, err := s.BeginItems(ctx)
	if err != nil {
		return false, err
	}
	defer batch.Rollback() //nolint:errcheck
	inserted, err := batch.InsertIfNew(ctx, item)
	if err != nil {
		return false, err
	}
	return inserted, batch.Commit()
}

const itemColumns = `item_id, source, author_token, body, created_utc,
		parent_id, link_id, permalink, keywords_hit, post_meta, inserted_at`

func scanItem(row interface{ Scan(...any) error }) (*ContentItem, error) {
	var (
		item       ContentItem
		hits, meta string
		insertedAt string
	)
	err := row.Scan(&item.ItemID, &item.Source, &item.AuthorToken, &item.Body,
		&item.CreatedUTC, &item.ParentID, &item.LinkID, &item.Permalink,
		&hits, &meta, &insertedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hits), &item.KeywordsHit); err != nil {
		return nil, fmt.Errorf("keywords_hit for %s: %w", item.ItemID, err)
	}
	if err := json.Unmarshal([]byte(meta), &item.PostMeta); err != nil {
		return nil, fmt.Errorf("post_meta for %s: %w", item.ItemID, err)
	}
	if item.InsertedAt, err = time.Parse(timeFormat, insertedAt); err != nil {
		return nil, fmt.Errorf("inserted_at for %s: %w", item.ItemID, err)
	}
	return &item, nil
}

// GetItem returns the item with the given id, or nil if not found. Callers
// treat a nil item as a dangling reference, not an error.
func (s *Store) GetItem(ctx context.Context, itemID string) (*ContentItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE item_id = $1`, itemID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetItem: %w", err)
	}
	return item, nil
}

// UndecidedItems returns ledger items that have neither a mark nor an
// acquittal, in insertion order. The detect job converges on full coverage
// by draining this set.
func (s *Store) UndecidedItems(ctx context.Context) ([]*ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM content_items c
		WHERE NOT EXISTS (SELECT 1 FROM detection_marks m WHERE m.item_id = c.item_id)
		  AND NOT EXISTS (SELECT 1 FROM detection_acquittals a WHERE a.item_id = c.item_id)
		ORDER BY inserted_at, item_id`)
	if err != nil {
		return nil, fmt.Errorf("UndecidedItems: %w", err)
	}
	defer rows.Close()

	var items []*ContentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("UndecidedItems: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// EmptyKeywordHitCount counts ledger rows whose keywords_hit is empty.
// Such rows are expected only when ingest ran with no include rules.
func (s *Store) EmptyKeywordHitCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM content_items
		WHERE keywords_hit = '[]' OR keywords_hit = 'null'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("EmptyKeywordHitCount: %w", err)
	}
	return n, nil
}

// CountItems returns the ledger size.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountItems: %w", err)
	}
	return n, nil
}
