package media

import "path/filepath"

// CleanupDir is the side tree removed media is moved into, never deleted
// from (§6.4).
const CleanupDir = "CLEANUP"

// Layout maps (media type, display basename) to on-disk paths for one
// platform: <media_root>/<platform>/<type>/<basename>.<ext>.
type Layout struct {
	MediaRoot  string
	PlatformID string
}

// Dir returns the directory for a catalog media type.
func (l Layout) Dir(catalogType string) string {
	return filepath.Join(l.MediaRoot, l.PlatformID, catalogType)
}

// PathFor returns the full path for a ROM's asset of the given type.
func (l Layout) PathFor(catalogType, baseName, ext string) string {
	return filepath.Join(l.Dir(catalogType), baseName+"."+ext)
}

// CleanupPathFor returns where a displaced file goes in the CLEANUP tree:
// <media_root>/CLEANUP/<platform>/<type>/<file>.
func (l Layout) CleanupPathFor(catalogType, fileName string) string {
	return filepath.Join(l.MediaRoot, CleanupDir, l.PlatformID, catalogType, fileName)
}
