package media

import (
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"os"
	"path/filepath"
)

// PresentTypes reports which enabled media types already have a usable
// asset on disk for the ROM (§3: present means a non-empty file at the
// expected path, and under strict validation one that decodes).
func PresentTypes(layout Layout, baseName string, enabled []string, mode ValidationMode, minSide int) map[string]bool {
	present := make(map[string]bool, len(enabled))
	for _, catalogType := range enabled {
		if path := ExistingPath(layout, catalogType, baseName); path != "" {
			if mode == ValidationStrict && !decodesCleanly(path, minSide) {
				continue
			}
			present[catalogType] = true
		}
	}
	return present
}

// ExistingPath returns the on-disk path of a ROM's asset for the catalog
// type, trying each extension the type may appear with; empty when absent
// or empty-file.
func ExistingPath(layout Layout, catalogType, baseName string) string {
	for _, ext := range extensionsForType(catalogType) {
		path := layout.PathFor(catalogType, baseName, ext)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path
		}
	}
	return ""
}

func decodesCleanly(path string, minSide int) bool {
	ext := filepath.Ext(path)
	if len(ext) > 0 && !isImageExt(ext[1:]) {
		return true // only images are decodable; videos pass on existence
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return false
	}
	if minSide > 0 && (config.Width < minSide || config.Height < minSide) {
		return false
	}
	return true
}

// HashFile computes the uppercase CRC32 of an existing asset, for
// comparison against the provenance record's stored hash.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := crc32.NewIEEE()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%08X", hasher.Sum32()), nil
}

// MoveToCleanup relocates a file into the CLEANUP tree (§4.3.1,
// move-never-delete). Cross-filesystem moves degrade to copy-then-remove.
func MoveToCleanup(layout Layout, catalogType, path string) (string, error) {
	dest := layout.CleanupPathFor(catalogType, filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create cleanup directory: %w", err)
	}

	if err := os.Rename(path, dest); err == nil {
		return dest, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for cleanup move: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create cleanup copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return "", fmt.Errorf("copy to cleanup: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}
	src.Close()
	return dest, os.Remove(path)
}
