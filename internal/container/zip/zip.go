// Package zip provides ZIP archive handling for the inventory scanner and
// identity builder, reading archive members without decompressing an entire
// member when only its central-directory metadata is needed.
package zip

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/sargunv/curateur/internal/util"
	"github.com/sargunv/curateur/lib/core"
)

var registerFastDeflate = sync.OnceFunc(func() {
	zip.RegisterDecompressor(zip.Deflate, flate.NewReader)
})

// Archive is an open ZIP archive, implementing util.FileContainer.
type Archive struct {
	reader  *zip.ReadCloser
	entries []util.FileEntry
	byName  map[string]*zip.File
}

// Open opens a ZIP archive and indexes its entries. Directory entries are
// skipped. Each entry carries its central-directory CRC32 under
// core.HashZipCRC32, letting callers reuse it without decompressing.
func Open(path string) (*Archive, error) {
	registerFastDeflate()

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}

	entries := make([]util.FileEntry, 0, len(r.File))
	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, util.FileEntry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
			Hashes: core.Hashes{
				core.HashZipCRC32: fmt.Sprintf("%08X", f.CRC32),
			},
		})
		byName[f.Name] = f
	}

	return &Archive{reader: r, entries: entries, byName: byName}, nil
}

// Entries returns all non-directory files in the archive.
func (a *Archive) Entries() []util.FileEntry {
	return a.entries
}

// OpenFile opens a single archive member for sequential reading.
func (a *Archive) OpenFile(name string) (io.ReadCloser, error) {
	f, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("file not found in zip: %s", name)
	}
	return f.Open()
}

// MemberCount returns the number of non-directory members, used by the
// identity builder to decide whether the zip-aware CRC32 shortcut (§4.2
// supplemented feature) applies — it requires exactly one member.
func (a *Archive) MemberCount() int {
	return len(a.entries)
}

// Close releases the underlying archive file handle.
func (a *Archive) Close() error {
	return a.reader.Close()
}
