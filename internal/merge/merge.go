// Package merge combines a fresh Provider record with the user's existing
// catalog entry (§4.10). The engine's one hard promise lives here: fields
// the user owns are never written, unknown sub-elements round-trip
// verbatim, and a populated field is never blanked by an empty Provider
// value under the default policy.
package merge

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sargunv/curateur/internal/provider"
	"github.com/sargunv/curateur/internal/region"
	"github.com/sargunv/curateur/lib/esde"
)

// Policy names a merge strategy (§6.7 scraping.merge_policy). Policies
// apply uniformly across all entries in one run.
type Policy string

const (
	// PolicyPreserveUserEdits is the default: provider-owned fields take
	// provider values, but an empty provider value never blanks a
	// populated field.
	PolicyPreserveUserEdits Policy = "preserve_user_edits"
	// PolicyProviderWins replaces every provider-owned field with the
	// provider's value, empty or not. User-owned fields are still never
	// touched; that invariant has no policy escape hatch.
	PolicyProviderWins Policy = "provider_wins"
)

// ChangeKind classifies one field-level difference.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// FieldChange is one entry in a ChangeReport.
type FieldChange struct {
	Field string
	Kind  ChangeKind
	Old   string
	New   string
}

func (c FieldChange) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("%s %s: %q", c.Field, c.Kind, c.New)
	case ChangeRemoved:
		return fmt.Sprintf("%s %s: was %q", c.Field, c.Kind, c.Old)
	default:
		return fmt.Sprintf("%s %s: %q -> %q", c.Field, c.Kind, c.Old, c.New)
	}
}

// ChangeReport aggregates one entry's field changes.
type ChangeReport struct {
	BaseName string
	Changes  []FieldChange
}

// Inputs is everything one merge needs.
type Inputs struct {
	// Existing is the current catalog entry; nil for a first scrape.
	Existing *esde.Game
	Record   *provider.Record

	// Path is what the catalog entry's path field should say (the ROM
	// file for single, the folder itself for disc_folder, the playlist for
	// playlist entities).
	Path string

	RomRegions    []string
	ConfigRegions []string

	// MediaPaths are the assets on disk after this run's fetches, keyed
	// by catalog media type, as gamelist-relative references.
	MediaPaths map[string]string
}

// Merge produces the output entry and its change report. The existing
// entry is never mutated.
func Merge(in Inputs, policy Policy) (*esde.Game, ChangeReport) {
	out := esde.Game{Path: in.Path}
	if in.Existing != nil {
		// Copying the struct carries the user-owned fields and the raw
		// unknown sub-elements across untouched.
		out = *in.Existing
		if in.Path != "" {
			out.Path = in.Path
		}
	}

	var changes []FieldChange
	rec := in.Record

	setString := func(field string, dst *string, value string) {
		applyString(&changes, field, dst, value, policy)
	}

	setString("name", &out.Name, selectName(rec, in.RomRegions, in.ConfigRegions))
	setString("desc", &out.Desc, selectDescription(rec, in.RomRegions, in.ConfigRegions))
	setString("developer", &out.Developer, rec.Developer)
	setString("publisher", &out.Publisher, rec.Publisher)
	setString("genre", &out.Genre, strings.Join(rec.Genres, ", "))

	if players := parsePlayers(rec.Players); players > 0 || policy == PolicyProviderWins {
		if players != out.Players {
			changes = append(changes, numberChange("players", out.Players != 0, strconv.Itoa(out.Players), strconv.Itoa(players)))
			out.Players = players
		}
	}

	if rec.RatingKnown || policy == PolicyProviderWins {
		if rec.Rating != out.Rating {
			changes = append(changes, numberChange("rating",
				out.Rating != 0,
				strconv.FormatFloat(out.Rating, 'f', 2, 64),
				strconv.FormatFloat(rec.Rating, 'f', 2, 64)))
			out.Rating = rec.Rating
		}
	}

	if date := selectReleaseDate(rec, in.RomRegions, in.ConfigRegions); !date.IsZero() || policy == PolicyProviderWins {
		if !date.Equal(out.ReleaseDate.Time) {
			changes = append(changes, numberChange("releasedate",
				!out.ReleaseDate.IsZero(),
				out.ReleaseDate.Format(esde.DateTimeFormat),
				date.Format(esde.DateTimeFormat)))
			out.ReleaseDate = esde.DateTime{Time: date}
		}
	}

	// Media references point at what this run actually placed on disk.
	if path, ok := in.MediaPaths["screenshots"]; ok {
		setString("image", &out.Image, path)
	}
	if path, ok := in.MediaPaths["covers"]; ok {
		setString("thumbnail", &out.Thumbnail, path)
	}
	if path, ok := in.MediaPaths["videos"]; ok {
		setString("video", &out.Video, path)
	}

	return &out, ChangeReport{Changes: changes}
}

// applyString implements the per-field policy: non-empty provider values
// replace, empty values leave the existing value alone unless the policy
// is provider-wins.
func applyString(changes *[]FieldChange, field string, dst *string, value string, policy Policy) {
	if value == "" && policy != PolicyProviderWins {
		return
	}
	if value == *dst {
		return
	}
	switch {
	case *dst == "":
		*changes = append(*changes, FieldChange{Field: field, Kind: ChangeAdded, New: value})
	case value == "":
		*changes = append(*changes, FieldChange{Field: field, Kind: ChangeRemoved, Old: *dst})
	default:
		*changes = append(*changes, FieldChange{Field: field, Kind: ChangeModified, Old: *dst, New: value})
	}
	*dst = value
}

func numberChange(field string, hadOld bool, old, new string) FieldChange {
	if !hadOld {
		return FieldChange{Field: field, Kind: ChangeAdded, New: new}
	}
	return FieldChange{Field: field, Kind: ChangeModified, Old: old, New: new}
}

// selectName picks the record's title by region search order, falling back
// to the Provider's first name.
func selectName(rec *provider.Record, romRegions, configRegions []string) string {
	order := region.BuildSearchOrder(romRegions, configRegions)
	byRegion := make(map[string]string, len(rec.Names))
	for _, n := range rec.Names {
		if _, ok := byRegion[n.Region]; !ok {
			byRegion[n.Region] = n.Text
		}
	}
	for _, r := range order {
		if text, ok := byRegion[r]; ok {
			return text
		}
	}
	// "ss" is the Provider's own default-region tag.
	if text, ok := byRegion["ss"]; ok {
		return text
	}
	if len(rec.Names) > 0 {
		return rec.Names[0].Text
	}
	return ""
}

// selectDescription picks the synopsis through the region-to-language
// preference chain.
func selectDescription(rec *provider.Record, romRegions, configRegions []string) string {
	entries := make([]region.LocalizedEntry, 0, len(rec.Descriptions))
	for _, d := range rec.Descriptions {
		entries = append(entries, region.LocalizedEntry{Language: d.Language, Text: d.Text})
	}
	return region.SelectLocalizedText(entries, romRegions, configRegions)
}

// releaseDateFormats are the shapes the Provider reports dates in.
var releaseDateFormats = []string{"2006-01-02", "2006-01", "2006"}

func selectReleaseDate(rec *provider.Record, romRegions, configRegions []string) time.Time {
	order := region.BuildSearchOrder(romRegions, configRegions)
	byRegion := make(map[string]string, len(rec.ReleaseDates))
	for _, d := range rec.ReleaseDates {
		if _, ok := byRegion[d.Region]; !ok {
			byRegion[d.Region] = d.Text
		}
	}

	raw := ""
	for _, r := range order {
		if text, ok := byRegion[r]; ok {
			raw = text
			break
		}
	}
	if raw == "" && len(rec.ReleaseDates) > 0 {
		raw = rec.ReleaseDates[0].Text
	}
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range releaseDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parsePlayers digests the Provider's player-count notations: "1", "1-4",
// "2+". The largest supported count wins.
func parsePlayers(raw string) int {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "+")
	if raw == "" {
		return 0
	}
	if dash := strings.LastIndex(raw, "-"); dash >= 0 {
		raw = raw[dash+1:]
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
