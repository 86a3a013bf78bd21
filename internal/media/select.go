package media

import (
	"github.com/sargunv/curateur/internal/provider"
	"github.com/sargunv/curateur/internal/region"
)

// Preferences order the selection passes: the ROM's own declared regions
// and languages come first, then the operator's configured preferences.
type Preferences struct {
	RomRegions    []string
	ConfigRegions []string

	RomLanguages    []string
	ConfigLanguages []string
}

// Select picks exactly one asset for a catalog media type, or nil when the
// record offers none (§4.9). Provider types are tried in mapping fallback
// order; within one type, candidates are bucketed by the region search
// order and the first candidate of the first non-empty bucket wins, so the
// choice is deterministic for a given record.
func Select(items []provider.MediaItem, catalogType string, prefs Preferences) *provider.MediaItem {
	for _, providerType := range TypeMapping[catalogType] {
		var candidates []provider.MediaItem
		for _, item := range items {
			if item.Type == providerType {
				candidates = append(candidates, item)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		if regionlessTypes[catalogType] {
			return pickByLanguage(candidates, prefs)
		}

		order := region.BuildSearchOrder(prefs.RomRegions, prefs.ConfigRegions)
		for _, r := range order {
			var bucket []provider.MediaItem
			for _, c := range candidates {
				if c.Region == r {
					bucket = append(bucket, c)
				}
			}
			if len(bucket) > 0 {
				return pickByLanguage(bucket, prefs)
			}
		}

		// No region in the search order matched; fall back to the
		// Provider's first offering rather than leaving a gap.
		return pickByLanguage(candidates, prefs)
	}
	return nil
}

// pickByLanguage applies the language pass to a region bucket: only
// meaningful when the candidates actually carry language tags, which the
// Provider sets for language-bearing types only.
func pickByLanguage(bucket []provider.MediaItem, prefs Preferences) *provider.MediaItem {
	tagged := false
	for _, c := range bucket {
		if c.Language != "" {
			tagged = true
			break
		}
	}
	if !tagged {
		return &bucket[0]
	}

	for _, lang := range append(append([]string{}, prefs.RomLanguages...), prefs.ConfigLanguages...) {
		for i := range bucket {
			if bucket[i].Language == lang {
				return &bucket[i]
			}
		}
	}
	return &bucket[0]
}

// ExtensionFor resolves the on-disk extension for a chosen item: the
// Provider-declared format when present, else the type's default.
func ExtensionFor(item *provider.MediaItem) string {
	if item.Format != "" {
		return item.Format
	}
	if ext, ok := Extensions[item.Type]; ok {
		return ext
	}
	return "bin"
}
