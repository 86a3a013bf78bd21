// Package catalog owns the on-disk gamelist.xml and its companion
// provenance index: the two files that together make up a platform's
// catalog (§4.3, §4.11). Reads tolerate malformed individual entries;
// writes are atomic so a crash mid-commit never leaves a half-written
// gamelist on disk.
package catalog

import (
	"time"

	"github.com/sargunv/curateur/lib/esde"
)

// ProvenanceRecord tracks what the engine last did for one catalog entry,
// separately from the user-facing gamelist.xml fields (§3: provenance
// fields are "metadata the engine itself depends on", not rendered by the
// frontend).
type ProvenanceRecord struct {
	BaseName         string            `json:"base_name"`
	ProviderRecordID string            `json:"provider_record_id,omitempty"`
	IdentityHash     string            `json:"identity_hash,omitempty"`
	MediaHashes      map[string]string `json:"media_hashes,omitempty"`
	LastScraped      time.Time         `json:"last_scraped"`
}

// Entry pairs a gamelist.xml game with its provenance record. Either half
// may be nil: a game can exist in the gamelist without provenance (hand
// added by the user) or, transiently during a commit, a provenance record
// can be about to be attached to a brand new game.
type Entry struct {
	Game       *esde.Game
	Provenance *ProvenanceRecord
}
