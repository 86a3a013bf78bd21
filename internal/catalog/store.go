package catalog

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sargunv/curateur/lib/esde"
)

// Store reads and writes one platform's catalog: a gamelist.xml plus its
// provenance.json sidecar, both at fixed paths.
type Store struct {
	GamelistPath   string
	ProvenancePath string
}

// New returns a Store for the given catalog and provenance file paths.
func New(gamelistPath, provenancePath string) *Store {
	return &Store{GamelistPath: gamelistPath, ProvenancePath: provenancePath}
}

// LoadResult is a loaded catalog indexed by display basename.
type LoadResult struct {
	Entries []Entry
	ByBase  map[string]*Entry
	// Folders are the catalog's folder entries, carried through commits
	// untouched; the engine only manages game entries.
	Folders  []esde.Folder
	Warnings []string
}

// Lookup implements the C3 contract's lookup(basename).
func (r *LoadResult) Lookup(baseName string) (*Entry, bool) {
	e, ok := r.ByBase[baseName]
	return e, ok
}

// Load reads the gamelist and provenance files. A missing gamelist or
// provenance file is not an error (a platform scraped for the first time
// has neither); a malformed individual game or folder entry is skipped
// with a warning rather than aborting the whole load.
func (s *Store) Load() (*LoadResult, error) {
	result := &LoadResult{ByBase: map[string]*Entry{}}

	data, err := os.ReadFile(s.GamelistPath)
	switch {
	case err == nil:
		list, warnings, perr := parseTolerant(data)
		if perr != nil {
			return nil, fmt.Errorf("parse gamelist %s: %w", s.GamelistPath, perr)
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Entries = make([]Entry, len(list.Games))
		for i := range list.Games {
			result.Entries[i] = Entry{Game: &list.Games[i]}
		}
		result.Folders = list.Folders
	case os.IsNotExist(err):
		// no catalog yet
	default:
		return nil, fmt.Errorf("read gamelist %s: %w", s.GamelistPath, err)
	}

	prov := map[string]ProvenanceRecord{}
	provData, err := os.ReadFile(s.ProvenancePath)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(provData, &prov); jerr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("provenance index %s unreadable, ignoring: %v", s.ProvenancePath, jerr))
			prov = map[string]ProvenanceRecord{}
		}
	case os.IsNotExist(err):
		// no provenance yet
	default:
		return nil, fmt.Errorf("read provenance %s: %w", s.ProvenancePath, err)
	}

	for i := range result.Entries {
		stem, full := PathKeys(result.Entries[i].Game.Path)
		if rec, ok := prov[stem]; ok {
			r := rec
			result.Entries[i].Provenance = &r
		} else if rec, ok := prov[full]; ok {
			r := rec
			result.Entries[i].Provenance = &r
		}
		result.ByBase[stem] = &result.Entries[i]
		if full != stem {
			result.ByBase[full] = &result.Entries[i]
		}
	}

	return result, nil
}

// Commit writes entries atomically to the gamelist and provenance files
// (§4.11: "Write atomically per §4.3. After success, write provenance
// sidecar"). The gamelist write must succeed before the provenance write is
// attempted, so a failed commit never leaves provenance referencing
// entries the catalog doesn't have.
func (s *Store) Commit(entries []Entry, folders []esde.Folder) error {
	list := &esde.GameList{Folders: folders}
	prov := map[string]ProvenanceRecord{}
	for _, e := range entries {
		if e.Game != nil {
			list.Games = append(list.Games, *e.Game)
		}
		if e.Provenance != nil {
			prov[e.Provenance.BaseName] = *e.Provenance
		}
	}

	gamelistData, err := esde.Write(list)
	if err != nil {
		return fmt.Errorf("serialize gamelist: %w", err)
	}
	if err := writeAtomic(s.GamelistPath, gamelistData, 0o644); err != nil {
		return fmt.Errorf("write gamelist %s: %w", s.GamelistPath, err)
	}

	provData, err := json.MarshalIndent(prov, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize provenance: %w", err)
	}
	if err := writeAtomic(s.ProvenancePath, provData, 0o644); err != nil {
		return fmt.Errorf("write provenance %s: %w", s.ProvenancePath, err)
	}

	return nil
}

// parseTolerant decodes a gameList document element by element so that one
// malformed <game> or <folder> doesn't abort the whole parse (§4.3:
// "Reads tolerate malformed entries: skip individual records with a
// warning, never abort").
func parseTolerant(data []byte) (*esde.GameList, []string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	list := &esde.GameList{}
	var warnings []string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, warnings, err
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "game":
			var g esde.Game
			if derr := dec.DecodeElement(&g, &se); derr != nil {
				warnings = append(warnings, fmt.Sprintf("skipping malformed game entry: %v", derr))
				continue
			}
			list.Games = append(list.Games, g)
		case "folder":
			var f esde.Folder
			if derr := dec.DecodeElement(&f, &se); derr != nil {
				warnings = append(warnings, fmt.Sprintf("skipping malformed folder entry: %v", derr))
				continue
			}
			list.Folders = append(list.Folders, f)
		}
	}

	return list, warnings, nil
}

// PathKeys returns the display basenames a catalog path may be looked up
// under. Plain files and playlists are addressed by their stem; disc-folder
// entries keep the extension in their display basename, so the full
// basename is a valid key too.
func PathKeys(path string) (stem, full string) {
	full = filepath.Base(path)
	stem = strings.TrimSuffix(full, filepath.Ext(full))
	return stem, full
}
