package provider

import (
	"strconv"
	"strings"

	"github.com/sargunv/curateur/lib/screenscraper"
)

// providerRatingScale is the Provider's own rating scale; ratings are
// normalized to [0,1] on entry to the engine (§4.5).
const providerRatingScale = 20.0

// fromGame converts the wire-format game into the engine's Record.
// Unknown regions and languages are carried through lowercased; the region
// package ignores codes outside its closed set (§6.1).
func fromGame(g *screenscraper.Game) *Record {
	rec := &Record{
		ID:        g.ID,
		Developer: g.Developer.Text,
		Publisher: g.Publisher.Text,
		Players:   g.Players,
	}

	for _, n := range g.Names {
		if n.Text == "" {
			continue
		}
		rec.Names = append(rec.Names, RegionalText{
			Region: strings.ToLower(n.Region),
			Text:   n.Text,
		})
	}

	for _, s := range g.Synopses {
		if s.Text == "" {
			continue
		}
		rec.Descriptions = append(rec.Descriptions, LocalizedText{
			Language: strings.ToLower(s.Language),
			Text:     s.Text,
		})
	}

	for _, d := range g.ReleaseDate {
		if d.Text == "" {
			continue
		}
		rec.ReleaseDates = append(rec.ReleaseDates, RegionalText{
			Region: strings.ToLower(d.Region),
			Text:   d.Text,
		})
	}

	for _, genre := range g.Genres {
		if name := genreName(genre); name != "" {
			rec.Genres = append(rec.Genres, name)
		}
	}

	if g.ROM != nil && g.ROM.Size != "" {
		if size, err := strconv.ParseInt(g.ROM.Size, 10, 64); err == nil {
			rec.ROMSizeBytes = size
		}
	}

	if g.Rating != "" {
		if raw, err := strconv.ParseFloat(g.Rating, 64); err == nil {
			rec.Rating = clamp01(raw / providerRatingScale)
			rec.RatingKnown = true
		}
	}

	for _, m := range g.Medias {
		if m.URL == "" {
			continue
		}
		item := MediaItem{
			Type:   m.Type,
			Region: strings.ToLower(m.Region),
			URL:    m.URL,
			Format: strings.ToLower(m.Format),
			CRC:    strings.ToUpper(m.CRC),
		}
		if m.Size != "" {
			if size, err := strconv.ParseInt(m.Size, 10, 64); err == nil {
				item.SizeBytes = size
			}
		}
		rec.Media = append(rec.Media, item)
	}

	return rec
}

// genreName picks a genre's display name, preferring English.
func genreName(g screenscraper.Genre) string {
	var fallback string
	for _, n := range g.Names {
		if n.Text == "" {
			continue
		}
		if strings.EqualFold(n.Region, "en") {
			return n.Text
		}
		if fallback == "" {
			fallback = n.Text
		}
	}
	return fallback
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// capsFromUser extracts the server-reported limits from a user info block.
func capsFromUser(u *screenscraper.UserInfo) Caps {
	if u == nil {
		return Caps{}
	}
	return Caps{
		MaxThreads:        atoi(u.MaxThreads),
		RequestsPerMinute: atoi(u.MaxRequestsPerMin),
		RequestsPerDay:    atoi(u.MaxRequestsPerDay),
		RequestsToday:     atoi(u.RequestsToday),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
