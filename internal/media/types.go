// Package media chooses, downloads, validates, and places per-ROM assets
// (§4.9). Catalog media types are the downstream frontend's directory
// names; each maps to one or more Provider media type codes tried in
// fallback order.
package media

// TypeMapping maps catalog media types to Provider media types.
// Some have fallbacks (e.g., marquees tries wheel-hd first, then wheel).
var TypeMapping = map[string][]string{
	"screenshots":   {"ss"},
	"titlescreens":  {"sstitle"},
	"covers":        {"box-2D"},
	"3dboxes":       {"box-3D"},
	"marquees":      {"wheel-hd", "wheel"},
	"fanart":        {"fanart"},
	"videos":        {"video-normalized", "video"},
	"physicalmedia": {"support-2D"},
	"backcovers":    {"box-2D-back"},
}

// Extensions maps Provider media types to expected file extensions, used
// when a media item reports no format of its own.
var Extensions = map[string]string{
	"ss":               "png",
	"sstitle":          "png",
	"box-2D":           "png",
	"box-3D":           "png",
	"wheel-hd":         "png",
	"wheel":            "png",
	"fanart":           "jpg",
	"video-normalized": "mp4",
	"video":            "mp4",
	"support-2D":       "png",
	"box-2D-back":      "png",
}

// regionlessTypes are catalog types whose assets aren't meaningfully
// regional; region filtering is skipped for them (§4.9).
var regionlessTypes = map[string]bool{
	"fanart": true,
	"videos": true,
}

// DefaultTypes returns the default media types to download.
func DefaultTypes() []string {
	return []string{"screenshots", "covers", "marquees"}
}

// AllTypes returns all supported catalog media types.
func AllTypes() []string {
	return []string{
		"screenshots",
		"titlescreens",
		"covers",
		"3dboxes",
		"marquees",
		"fanart",
		"videos",
		"physicalmedia",
		"backcovers",
	}
}

// IsKnownType reports whether t is in the closed catalog type set.
func IsKnownType(t string) bool {
	_, ok := TypeMapping[t]
	return ok
}

// extensionsForType returns the distinct on-disk extensions a catalog type
// may appear with, in fallback order.
func extensionsForType(catalogType string) []string {
	var exts []string
	seen := make(map[string]bool)
	for _, providerType := range TypeMapping[catalogType] {
		ext := Extensions[providerType]
		if ext != "" && !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}
