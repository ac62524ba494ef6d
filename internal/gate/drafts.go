package gate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// Draft is one outbound candidate text read from a JSONL stream.
type Draft struct {
	Scope string `json:"scope"`
	Text  string `json:"text"`
}

// DefaultDraftScope is used when a draft record omits its scope.
const DefaultDraftScope = "fixture_draft"

const draftSchemaJSON = `{
	"type": "object",
	"properties": {
		"scope": {"type": "string"},
		"text":  {"type": "string"}
	},
	"required": ["text"]
}`

func compileDraftSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(draftSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("gate: draft schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("draft.json", doc); err != nil {
		return nil, fmt.Errorf("gate: draft schema: %w", err)
	}
	sch, err := c.Compile("draft.json")
	if err != nil {
		return nil, fmt.Errorf("gate: draft schema: %w", err)
	}
	return sch, nil
}

// ReadDrafts decodes one JSON object per line. Blank lines are ignored;
// malformed or schema-invalid lines are logged and skipped, never fatal.
func ReadDrafts(r io.Reader, logger *zap.Logger) ([]Draft, error) {
	sch, err := compileDraftSchema()
	if err != nil {
		return nil, err
	}

	var drafts []Draft
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
			logger.Warn("skipping malformed draft line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if err := sch.Validate(doc); err != nil {
			logger.Warn("skipping schema-invalid draft line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		var d Draft
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			logger.Warn("skipping undecodable draft line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if d.Scope == "" {
			d.Scope = DefaultDraftScope
		}
		drafts = append(drafts, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gate: reading drafts: %w", err)
	}
	return drafts, nil
}
