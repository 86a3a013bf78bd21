package util

import (
	"io"

	"github.com/sargunv/curateur/lib/core"
)

// FileEntry represents a file within a container.
type FileEntry struct {
	Name   string      // Relative path within container
	Size   int64       // Uncompressed size
	Hashes core.Hashes // Pre-computed hashes from container metadata (may be nil)
}

// FileContainer represents a container format (ZIP, folder, etc.) that can enumerate
// and provide sequential access to its contents.
type FileContainer interface {
	// Entries returns all files in the container.
	Entries() []FileEntry

	// OpenFile opens a file for sequential reading.
	OpenFile(name string) (io.ReadCloser, error)

	// Close releases resources associated with the container.
	Close() error
}
