package platform

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// indexDocument mirrors the downstream frontend's system list XML (the same
// shape as ES-DE's es_systems.xml): one <system> per platform, a <path>
// using the %ROMPATH% macro, and a space-separated <extension> list.
type indexDocument struct {
	XMLName xml.Name      `xml:"systemList"`
	Systems []indexSystem `xml:"system"`
}

type indexSystem struct {
	Name      string `xml:"name"`
	FullName  string `xml:"fullname"`
	Path      string `xml:"path"`
	Extension string `xml:"extension"`
	Platform  string `xml:"platform"`
}

const romPathMacro = "%ROMPATH%"

// ParseIndex parses the platform-index document (§6.2) and resolves each
// system's ROM path macro against romRootBase. providerCodes maps a
// platform's ID to the Provider's own platform code (§5's Provider Client
// needs this, but the index document itself carries no such mapping);
// platforms with no entry in providerCodes are still returned, with an
// empty ProviderCode, so the orchestrator can report them as unmapped
// rather than silently dropping them.
func ParseIndex(data []byte, romRootBase string, providerCodes map[string]string) ([]Platform, error) {
	var doc indexDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse platform index: %w", err)
	}

	platforms := make([]Platform, 0, len(doc.Systems))
	for _, sys := range doc.Systems {
		if sys.Name == "" {
			continue
		}
		platforms = append(platforms, Platform{
			ID:           sys.Name,
			Name:         sys.FullName,
			ProviderCode: providerCodes[sys.Name],
			RomRoot:      resolveRomRoot(sys.Path, romRootBase),
			Extensions:   parseExtensions(sys.Extension),
		})
	}
	return platforms, nil
}

func resolveRomRoot(path, romRootBase string) string {
	if strings.Contains(path, romPathMacro) {
		path = strings.ReplaceAll(path, romPathMacro, romRootBase)
	}
	return filepath.Clean(path)
}

func parseExtensions(field string) []string {
	fields := strings.Fields(field)
	exts := make([]string, 0, len(fields))
	for _, e := range fields {
		exts = append(exts, normalizeExt(e))
	}
	return exts
}

// Select filters platforms by the operator's allowlist (§6.7 platforms.selection).
// An empty selection means "all platforms" and returns the input unchanged.
func Select(platforms []Platform, selection []string) []Platform {
	if len(selection) == 0 {
		return platforms
	}
	allowed := make(map[string]bool, len(selection))
	for _, id := range selection {
		allowed[strings.ToLower(id)] = true
	}
	out := make([]Platform, 0, len(platforms))
	for _, p := range platforms {
		if allowed[strings.ToLower(p.ID)] {
			out = append(out, p)
		}
	}
	return out
}
