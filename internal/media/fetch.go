package media

import (
	"context"
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Decoders for the image formats the Provider serves.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/sargunv/curateur/internal/provider"
)

// ValidationMode controls how hard a downloaded asset is checked before it
// replaces anything on disk (§6.7 media.validation).
type ValidationMode string

const (
	ValidationDisabled ValidationMode = "disabled"
	ValidationNormal   ValidationMode = "normal"
	ValidationStrict   ValidationMode = "strict"
)

// FetchOptions tune validation.
type FetchOptions struct {
	Validation ValidationMode
	// MinBytes rejects suspiciously small downloads; zero disables.
	MinBytes int64
	// MinImageSide is the strict-mode minimum width and height.
	MinImageSide int
}

// Fetcher downloads assets through the Provider client's pooled transport.
type Fetcher struct {
	Client       *provider.Client
	PlatformCode string
}

// Fetch streams one chosen asset to destPath: download to a sibling temp
// file, validate, then rename into place, so a failed or cancelled download
// never clobbers an existing file. Returns the asset's uppercase CRC32 for
// provenance. ErrNoMedia/ErrMediaUnchanged pass through for the caller.
func (f *Fetcher) Fetch(ctx context.Context, item *provider.MediaItem, gameID, destPath string, opts FetchOptions) (string, error) {
	body, err := f.open(ctx, item, gameID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(destPath)+"."+uuid.NewString()+".tmp")
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	hasher := crc32.NewIEEE()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("download media: %w", err)
	}

	if err := validate(tmpPath, destPath, written, opts); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("place media file: %w", err)
	}

	return fmt.Sprintf("%08X", hasher.Sum32()), nil
}

// open prefers the record's direct URL and falls back to the parametrized
// media endpoint when the record carried none.
func (f *Fetcher) open(ctx context.Context, item *provider.MediaItem, gameID string) (io.ReadCloser, error) {
	if item.URL != "" {
		return f.Client.OpenMedia(ctx, item.URL)
	}
	mediaID := item.Type
	if item.Region != "" {
		mediaID = fmt.Sprintf("%s(%s)", item.Type, item.Region)
	}
	return f.Client.OpenGameMedia(ctx, f.PlatformCode, gameID, mediaID)
}

// ValidationError marks a download rejected by validation; the caller logs
// it and leaves a gap rather than retrying (§7 soft-degrade).
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("media validation failed for %s: %s", e.Path, e.Reason)
}

func validate(tmpPath, destPath string, size int64, opts FetchOptions) error {
	if size == 0 {
		return &ValidationError{Path: destPath, Reason: "empty download"}
	}
	if opts.Validation == ValidationDisabled {
		return nil
	}
	if opts.MinBytes > 0 && size < opts.MinBytes {
		return &ValidationError{Path: destPath, Reason: fmt.Sprintf("only %d bytes", size)}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(destPath), "."))
	if !isImageExt(ext) {
		return nil
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("reopen for validation: %w", err)
	}
	defer f.Close()

	config, format, err := image.DecodeConfig(f)
	if err != nil {
		return &ValidationError{Path: destPath, Reason: "not a decodable image"}
	}
	if !formatMatchesExt(format, ext) {
		return &ValidationError{Path: destPath, Reason: fmt.Sprintf("decoded as %s, expected %s", format, ext)}
	}
	if opts.Validation == ValidationStrict && opts.MinImageSide > 0 {
		if config.Width < opts.MinImageSide || config.Height < opts.MinImageSide {
			return &ValidationError{Path: destPath, Reason: fmt.Sprintf("%dx%d below minimum side %d", config.Width, config.Height, opts.MinImageSide)}
		}
	}
	return nil
}

func isImageExt(ext string) bool {
	switch ext {
	case "png", "jpg", "jpeg", "gif":
		return true
	}
	return false
}

func formatMatchesExt(format, ext string) bool {
	switch format {
	case "jpeg":
		return ext == "jpg" || ext == "jpeg"
	default:
		return format == ext
	}
}
