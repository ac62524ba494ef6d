package ingest

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// tokenBytes is the digest prefix kept in the author token. 12 bytes is
// enough to keep collisions implausible at ledger scale while staying
// readable in query output.
const tokenBytes = 12

// AnonymizeAuthor maps a raw author name to a stable opaque token. The raw
// name is never persisted; identical authors produce identical tokens so
// per-author analysis still works.
func AnonymizeAuthor(author string) string {
	if author == "" {
		return "u_anonymous"
	}
	sum := blake2b.Sum256([]byte(author))
	return "u_" + hex.EncodeToString(sum[:tokenBytes])
}
