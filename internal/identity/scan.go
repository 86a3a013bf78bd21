package identity

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/sargunv/curateur/internal/platform"
	"github.com/sargunv/curateur/internal/region"
)

// playlistExtensions is the closed set of extensions the scanner treats as
// a playlist rather than a single ROM file.
var playlistExtensions = map[string]bool{
	".m3u": true,
}

// Scan enumerates RomEntities under plat.RomRoot (§4.1). It does not
// recurse beyond one level into disc-folder directories.
func Scan(plat platform.Platform) ([]RomEntity, []ConflictReport, error) {
	dirEntries, err := os.ReadDir(plat.RomRoot)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var entities []RomEntity
	var conflicts []ConflictReport

	for _, de := range dirEntries {
		name := de.Name()
		fullPath := filepath.Join(plat.RomRoot, name)

		if de.IsDir() {
			ext := filepath.Ext(name)
			if !plat.AcceptsExtension(ext) {
				continue
			}
			entity, ok := scanDiscFolder(fullPath, name)
			if ok {
				entities = append(entities, entity)
			}
			continue
		}

		ext := filepath.Ext(name)
		if playlistExtensions[strings.ToLower(ext)] {
			entity, conflict, ok := scanPlaylist(fullPath, name)
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
			}
			if ok {
				entities = append(entities, entity)
			}
			continue
		}

		if plat.AcceptsExtension(ext) {
			entities = append(entities, scanSingle(fullPath, name, ext))
		}
	}

	entities, dupConflicts := dropBasenameCollisions(entities)
	conflicts = append(conflicts, dupConflicts...)

	return entities, conflicts, nil
}

func scanSingle(fullPath, name, ext string) RomEntity {
	baseName := strings.TrimSuffix(name, ext)
	regions := region.ParseFilename(baseName)
	return RomEntity{
		Kind:            KindSingle,
		DisplayBaseName: baseName,
		PrimaryFile:     fullPath,
		Path:            fullPath,
		Regions:         regions,
		Languages:       languagesFor(regions),
	}
}

// scanPlaylist parses an .m3u file: blank lines and lines starting with "#"
// are ignored, remaining lines are paths relative to the playlist's
// directory (absolute paths accepted as-is). The first path is disc 1.
func scanPlaylist(fullPath, name string) (RomEntity, *ConflictReport, bool) {
	ext := filepath.Ext(name)
	baseName := strings.TrimSuffix(name, ext)
	dir := filepath.Dir(fullPath)

	f, err := os.Open(fullPath)
	if err != nil {
		return RomEntity{}, &ConflictReport{
			BaseName: baseName, Reason: ReasonUnreadable, Detail: err.Error(),
		}, false
	}
	defer f.Close()

	var discs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		discs = append(discs, line)
	}
	if err := scanner.Err(); err != nil {
		return RomEntity{}, &ConflictReport{
			BaseName: baseName, Reason: ReasonUnreadable, Detail: err.Error(),
		}, false
	}

	if len(discs) == 0 {
		return RomEntity{}, &ConflictReport{
			BaseName: baseName, Reason: ReasonBrokenPlaylist, Detail: "no disc entries",
		}, false
	}

	primary := discs[0]
	if _, err := os.Stat(primary); err != nil {
		return RomEntity{}, &ConflictReport{
			BaseName: baseName, Reason: ReasonBrokenPlaylist, Detail: "disc 1 missing: " + primary,
		}, false
	}

	regions := region.ParseFilename(baseName)
	return RomEntity{
		Kind:            KindPlaylist,
		DisplayBaseName: baseName,
		PrimaryFile:     primary,
		Path:            fullPath,
		AuxFiles:        discs[1:],
		Regions:         regions,
		Languages:       languagesFor(regions),
	}, nil, true
}

// scanDiscFolder classifies a directory whose name carries an accepted
// extension as a disc_folder only if it contains exactly one file whose
// stem equals the directory's stem.
func scanDiscFolder(dirPath, dirName string) (RomEntity, bool) {
	ext := filepath.Ext(dirName)
	stem := strings.TrimSuffix(dirName, ext)

	children, err := os.ReadDir(dirPath)
	if err != nil {
		return RomEntity{}, false
	}

	var match string
	var aux []string
	for _, c := range children {
		if c.IsDir() {
			continue
		}
		childStem := strings.TrimSuffix(c.Name(), filepath.Ext(c.Name()))
		if childStem == stem {
			if match != "" {
				return RomEntity{}, false // more than one match disqualifies
			}
			match = filepath.Join(dirPath, c.Name())
		} else {
			aux = append(aux, filepath.Join(dirPath, c.Name()))
		}
	}
	if match == "" {
		return RomEntity{}, false
	}

	regions := region.ParseFilename(dirName)
	return RomEntity{
		Kind:            KindDiscFolder,
		DisplayBaseName: dirName,
		PrimaryFile:     match,
		Path:            match,
		AuxFiles:        aux,
		Regions:         regions,
		Languages:       languagesFor(regions),
	}, true
}

// dropBasenameCollisions enforces §3's uniqueness invariant: within one
// platform scan, no two entities may share a display basename. Playlist vs.
// disc_folder collisions are the documented case (§4.1), but the rule is
// applied generally since any two accepted-extension files can share a
// stem (e.g. "Game.nes" and "Game.zip").
func dropBasenameCollisions(entities []RomEntity) ([]RomEntity, []ConflictReport) {
	byName := make(map[string][]int)
	for i, e := range entities {
		byName[e.DisplayBaseName] = append(byName[e.DisplayBaseName], i)
	}

	drop := make(map[int]bool)
	var conflicts []ConflictReport
	for name, idxs := range byName {
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			drop[i] = true
		}
		conflicts = append(conflicts, ConflictReport{
			BaseName: name,
			Reason:   ReasonBasenameCollision,
		})
	}

	// A disc folder keeps its extension in the display basename, so a
	// playlist collides with it on the stem, not the full name: "Title.m3u"
	// vs directory "Title.cue". Both are dropped together.
	for i, e := range entities {
		if e.Kind != KindDiscFolder {
			continue
		}
		stem := strings.TrimSuffix(e.DisplayBaseName, filepath.Ext(e.DisplayBaseName))
		for _, j := range byName[stem] {
			if entities[j].Kind != KindPlaylist || drop[i] && drop[j] {
				continue
			}
			drop[i] = true
			drop[j] = true
			conflicts = append(conflicts, ConflictReport{
				BaseName: stem,
				Reason:   ReasonBasenameCollision,
				Detail:   "playlist collides with disc folder " + e.DisplayBaseName,
			})
		}
	}

	if len(drop) == 0 {
		return entities, nil
	}

	kept := make([]RomEntity, 0, len(entities)-len(drop))
	for i, e := range entities {
		if !drop[i] {
			kept = append(kept, e)
		}
	}
	return kept, conflicts
}

func languagesFor(regions []string) []string {
	if len(regions) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var langs []string
	for _, r := range regions {
		lang, ok := region.ToLanguage[r]
		if !ok || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}
