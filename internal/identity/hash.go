package identity

import (
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	containerzip "github.com/sargunv/curateur/internal/container/zip"
	"github.com/sargunv/curateur/lib/core"
	"github.com/sargunv/curateur/lib/romident/chd"
)

// chunkSize is the read buffer used while streaming a primary file through
// its hash function (§4.2: "streaming... in fixed-size chunks (~1 MiB)").
const chunkSize = 1 << 20

// Options controls the Identity Builder (§6.7 runtime.* config).
type Options struct {
	Algorithm HashAlgorithm
	// SizeCapBytes is the size above which hashing is skipped entirely
	// (§4.2); zero means no cap.
	SizeCapBytes int64
}

// BuildIdentity computes Size and Hash for e.PrimaryFile in place. Hashing
// is pure and reentrant: computing the same entity twice yields identical
// output. If the file exceeds opts.SizeCapBytes, Hash is left empty and the
// caller must fall back to name-search.
func BuildIdentity(e *RomEntity, opts Options) error {
	info, err := os.Stat(e.PrimaryFile)
	if err != nil {
		return fmt.Errorf("stat %s: %w", e.PrimaryFile, err)
	}
	e.Size = info.Size()

	algo := opts.Algorithm
	if algo == "" {
		algo = HashCRC32
	}

	if opts.SizeCapBytes > 0 && e.Size > opts.SizeCapBytes {
		e.Hash = ""
		e.HashAlgorithm = ""
		return nil
	}

	if algo == HashSHA1 && strings.EqualFold(filepath.Ext(e.PrimaryFile), ".chd") {
		if value, ok := chdFastPathHash(e.PrimaryFile); ok {
			e.Hash = value
			e.HashAlgorithm = algo
			return nil
		}
		// header unparsable: fall through to a full streaming hash below
	}

	if algo == HashCRC32 && strings.EqualFold(filepath.Ext(e.PrimaryFile), ".zip") {
		if value, ok, err := zipAwareCRC32(e.PrimaryFile); err == nil && ok {
			e.Hash = value
			e.HashAlgorithm = algo
			return nil
		}
	}

	value, err := streamHash(e.PrimaryFile, algo)
	if err != nil {
		return err
	}
	e.Hash = value
	e.HashAlgorithm = algo
	return nil
}

// chdFastPathHash reads the CHD v5 header and returns its embedded
// uncompressed-SHA1, a pure function of the file's bytes just like a full
// stream hash, without decompressing potentially multi-gigabyte disc images.
func chdFastPathHash(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	header, err := chd.ParseCHDHeader(f)
	if err != nil || header.RawSHA1 == "" {
		return "", false
	}
	return header.RawSHA1, true
}

// zipAwareCRC32 reuses a single-member zip archive's central-directory
// CRC32 instead of decompressing it, mirroring the historical
// core.HashZipCRC32 container-metadata hash.
func zipAwareCRC32(path string) (string, bool, error) {
	archive, err := containerzip.Open(path)
	if err != nil {
		return "", false, err
	}
	defer archive.Close()

	if archive.MemberCount() != 1 {
		return "", false, nil
	}
	entries := archive.Entries()
	value, ok := entries[0].Hashes[core.HashZipCRC32]
	return value, ok, nil
}

func streamHash(path string, algo HashAlgorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var h hash.Hash
	switch algo {
	case HashSHA1:
		h = sha1.New()
	case HashMD5:
		h = md5.New()
	case HashCRC32:
		h = crc32.NewIEEE()
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	if algo == HashCRC32 {
		return fmt.Sprintf("%08X", h.(hash.Hash32).Sum32()), nil
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}
