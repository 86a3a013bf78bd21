// Package platform models the downstream frontend's platform-index document
// (§6.2) and the Platform entity (§3) derived from it: a read-only listing
// of consoles/computers, each with a ROM root and accepted extensions.
package platform

import "strings"

// Platform is one entry from the platform-index document, resolved against
// the engine's own configured ROM root.
type Platform struct {
	// ID is the downstream frontend's identifier, e.g. "nes".
	ID string
	// Name is the human-readable full name, e.g. "Nintendo Entertainment System".
	Name string
	// ProviderCode is the Provider's own platform identifier, looked up
	// separately from ID since the platform-index document carries no
	// Provider-specific codes.
	ProviderCode string
	// RomRoot is the resolved, absolute (or process-relative) ROM directory
	// for this platform, after macro substitution (§6.2).
	RomRoot string
	// Extensions is the closed set of accepted ROM file extensions,
	// lowercase, each including the leading dot (e.g. ".nes", ".zip").
	Extensions []string
}

// AcceptsExtension reports whether ext (with or without a leading dot, in
// any case) is in the platform's accepted set.
func (p Platform) AcceptsExtension(ext string) bool {
	ext = normalizeExt(ext)
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
