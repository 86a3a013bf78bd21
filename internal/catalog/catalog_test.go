package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sargunv/curateur/lib/esde"
)

func paths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "gamelist.xml"), filepath.Join(dir, "provenance.json")
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	gamelistPath, provPath := paths(t)
	store := New(gamelistPath, provPath)

	result, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(result.Entries))
	}
}

func TestCommitThenLoadRoundtrip(t *testing.T) {
	gamelistPath, provPath := paths(t)
	store := New(gamelistPath, provPath)

	entries := []Entry{
		{
			Game: &esde.Game{Path: "./Mega Quest.nes", Name: "Mega Quest", Favorite: true},
			Provenance: &ProvenanceRecord{
				BaseName:         "Mega Quest",
				ProviderRecordID: "1234",
				IdentityHash:     "ABCDEF",
				LastScraped:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			},
		},
	}

	if err := store.Commit(entries, nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	result, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	entry, ok := result.Lookup("Mega Quest")
	if !ok {
		t.Fatal("Lookup(\"Mega Quest\") not found")
	}
	if !entry.Game.Favorite {
		t.Error("Favorite flag lost across commit/load")
	}
	if entry.Provenance == nil || entry.Provenance.ProviderRecordID != "1234" {
		t.Errorf("Provenance not round-tripped: %+v", entry.Provenance)
	}
}

func TestLoadSkipsMalformedGameEntry(t *testing.T) {
	gamelistPath, provPath := paths(t)
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<gameList>
  <game>
    <path>./good.nes</path>
    <name>Good Game</name>
  </game>
  <game>
    <path>./bad.nes</path>
    <rating>not-a-number</rating>
  </game>
</gameList>`)
	writeFile(t, gamelistPath, data)

	store := New(gamelistPath, provPath)
	result, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", len(result.Entries))
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning for the malformed entry, got %v", result.Warnings)
	}
}

func TestPresenceRatio(t *testing.T) {
	existing := []Entry{
		{Game: &esde.Game{Path: "./a.nes"}},
		{Game: &esde.Game{Path: "./b.nes"}},
		{Game: &esde.Game{Path: "./c.nes"}},
		{Game: &esde.Game{Path: "./d.nes"}},
	}
	found := map[string]bool{"a": true, "b": true, "c": true}

	ratio := PresenceRatio(found, existing)
	if ratio != 0.75 {
		t.Errorf("PresenceRatio = %v, want 0.75", ratio)
	}

	orphans := Orphans(found, existing)
	if len(orphans) != 1 || orphans[0].Game.Path != "./d.nes" {
		t.Errorf("Orphans = %+v, want just d.nes", orphans)
	}
}

func TestPresenceRatioEmptyCatalogIsOne(t *testing.T) {
	if r := PresenceRatio(map[string]bool{}, nil); r != 1 {
		t.Errorf("PresenceRatio on empty catalog = %v, want 1", r)
	}
}
