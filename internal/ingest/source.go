// Package ingest pulls raw content records from a source, filters them
// through discard predicates and the keyword matcher, and appends survivors
// to the content ledger. Ingestion is idempotent: replaying a stream never
// duplicates rows.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// Record is one raw content item as produced by a source, before
// anonymization and filtering.
type Record struct {
	ID         string         `json:"id"`
	Subreddit  string         `json:"subreddit"`
	Author     string         `json:"author"`
	Body       string         `json:"body"`
	CreatedUTC string         `json:"created_utc"`
	ParentID   string         `json:"parent_id"`
	LinkID     string         `json:"link_id"`
	Permalink  string         `json:"permalink"`
	PostMeta   map[string]any `json:"post_meta"`
}

// Source streams records for one ingest run.
type Source interface {
	// Records returns the run's records. Malformed entries are skipped by
	// the source, never surfaced as errors.
	Records() ([]Record, error)
}

// FilterSource wraps a Source with forum allow/avoid lists from
// sources.yml. An empty allow list admits every forum not on the avoid
// list; the avoid list always wins.
type FilterSource struct {
	Inner Source
	Allow []string
	Avoid []string
}

// Records implements Source.
func (f *FilterSource) Records() ([]Record, error) {
	records, err := f.Inner.Records()
	if err != nil {
		return nil, err
	}

	avoid := make(map[string]bool, len(f.Avoid))
	for _, s := range f.Avoid {
		avoid[s] = true
	}
	allow := make(map[string]bool, len(f.Allow))
	for _, s := range f.Allow {
		allow[s] = true
	}

	kept := records[:0]
	for _, rec := range records {
		if avoid[rec.Subreddit] {
			continue
		}
		if len(allow) > 0 && !allow[rec.Subreddit] {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, nil
}

const recordSchemaJSON = `{
	"type": "object",
	"properties": {
		"id":          {"type": "string", "minLength": 1},
		"subreddit":   {"type": "string"},
		"author":      {"type": "string"},
		"body":        {"type": "string"},
		"created_utc": {"type": "string"},
		"parent_id":   {"type": "string"},
		"link_id":     {"type": "string"},
		"permalink":   {"type": "string"},
		"post_meta":   {"type": "object"}
	},
	"required": ["id", "body"]
}`

func compileRecordSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("ingest: record schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("record.json", doc); err != nil {
		return nil, fmt.Errorf("ingest: record schema: %w", err)
	}
	sch, err := c.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("ingest: record schema: %w", err)
	}
	return sch, nil
}

// FixtureSource reads JSONL records from a local file. It is the offline
// stand-in for a live forum API client.
type FixtureSource struct {
	Path   string
	Logger *zap.Logger
}

// Records implements Source.
func (f *FixtureSource) Records() ([]Record, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening fixtures: %w", err)
	}
	defer file.Close()
	return readRecords(file, f.Logger)
}

func readRecords(r io.Reader, logger *zap.Logger) ([]Record, error) {
	sch, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}

	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(line))
		if err != nil {
			logger.Warn("skipping malformed record line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if err := sch.Validate(doc); err != nil {
			logger.Warn("skipping schema-invalid record line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logger.Warn("skipping undecodable record line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: reading records: %w", err)
	}
	return records, nil
}
