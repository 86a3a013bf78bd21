// Package identity implements the Inventory Scanner (C1) and Identity
// Builder (C2): it walks a platform's ROM root, classifies each entity,
// and computes the identifying (filename, size, content hash) tuple used
// for Provider match-by-identity lookups.
package identity

import "fmt"

// Kind classifies how a RomEntity is packaged on disk (§4.1).
type Kind string

const (
	KindSingle     Kind = "single"
	KindPlaylist   Kind = "playlist"
	KindDiscFolder Kind = "disc_folder"
)

// HashAlgorithm selects the content-hash function used by the Identity
// Builder (§6.7 runtime.hash_algorithm).
type HashAlgorithm string

const (
	HashCRC32 HashAlgorithm = "crc32"
	HashMD5   HashAlgorithm = "md5"
	HashSHA1  HashAlgorithm = "sha1"
)

// RomEntity is one addressable game discovered by the scanner (§3).
type RomEntity struct {
	Kind Kind

	// DisplayBaseName is what media/catalog filenames are derived from:
	// the stem for single files, the playlist stem, or the disc-folder's
	// full name (extension kept).
	DisplayBaseName string

	// PrimaryFile is the absolute path of the file used for identity: the
	// ROM itself for single, disc 1 for playlist, the matching contained
	// file for disc_folder.
	PrimaryFile string

	// Path is the path recorded in the catalog entry: the ROM file for
	// single and disc_folder, the playlist file for playlist.
	Path string

	// AuxFiles lists other files belonging to this entity (other discs of
	// a playlist, or sibling files of a disc folder) that are not used for
	// identity but travel with the entity.
	AuxFiles []string

	Regions   []string
	Languages []string

	Size int64
	// Hash is the uppercase hex content hash, empty if the file exceeded
	// the configured size cap (§4.2).
	Hash string
	// HashAlgorithm records which algorithm produced Hash; zero value when
	// Hash is empty.
	HashAlgorithm HashAlgorithm
}

// ConflictReason names why two or more entities were dropped together
// during scanning (§4.1 conflict detection).
type ConflictReason string

const (
	ReasonBasenameCollision ConflictReason = "basename_collision"
	ReasonUnreadable        ConflictReason = "unreadable"
	ReasonBrokenPlaylist    ConflictReason = "broken_playlist"
)

// ConflictReport records entities dropped from a scan and why.
type ConflictReport struct {
	BaseName string
	Reason   ConflictReason
	Detail   string
}

func (c ConflictReport) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s: %s", c.BaseName, c.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", c.BaseName, c.Reason, c.Detail)
}
