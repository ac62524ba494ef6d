// Package audit mirrors every policy-gate decision to an analytics sink.
// The relational policy_checks table remains the durable audit log; this
// stream exists for dashboards and ad-hoc queries and is allowed to drop
// events under pressure.
package audit

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Event is one policy-gate decision as seen by the analytics sink.
type Event struct {
	CheckID     string
	Scope       string
	Allow       bool
	Flags       []string
	Reason      string
	TextPreview string // first PreviewLength runes of the draft
	TextHash    string // blake2b-256 of the full draft text
	TextSize    uint32
	LatencyMs   float32
	CreatedAt   time.Time
}

// EventWriter is the sink interface. Write must never block the caller.
type EventWriter interface {
	Write(event *Event)
	Close()
}

// PreviewLength is the max runes stored in text_preview.
const PreviewLength = 500

// TruncateText returns the first maxLen runes of text without splitting a
// multi-byte character.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}

// HashText returns the hex blake2b-256 digest of the draft text, so
// identical drafts can be correlated across events without storing full
// text in the sink.
func HashText(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
