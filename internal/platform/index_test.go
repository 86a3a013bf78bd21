package platform

import "testing"

const sampleIndex = `<?xml version="1.0"?>
<systemList>
  <system>
    <name>nes</name>
    <fullname>Nintendo Entertainment System</fullname>
    <path>%ROMPATH%/nes</path>
    <extension>.nes .NES .zip</extension>
    <platform>nes</platform>
  </system>
  <system>
    <name>snes</name>
    <fullname>Super Nintendo</fullname>
    <path>%ROMPATH%/snes</path>
    <extension>.sfc .smc .zip</extension>
    <platform>snes</platform>
  </system>
</systemList>`

func TestParseIndex(t *testing.T) {
	platforms, err := ParseIndex([]byte(sampleIndex), "/roms", DefaultProviderCodes)
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}
	if len(platforms) != 2 {
		t.Fatalf("expected 2 platforms, got %d", len(platforms))
	}

	nes := platforms[0]
	if nes.ID != "nes" {
		t.Errorf("ID = %q, want nes", nes.ID)
	}
	if nes.RomRoot != "/roms/nes" {
		t.Errorf("RomRoot = %q, want /roms/nes", nes.RomRoot)
	}
	if nes.ProviderCode != "3" {
		t.Errorf("ProviderCode = %q, want 3", nes.ProviderCode)
	}
	if !nes.AcceptsExtension("NES") || !nes.AcceptsExtension(".zip") {
		t.Error("expected .nes and .zip to be accepted, case-insensitively")
	}
	if nes.AcceptsExtension(".sfc") {
		t.Error("nes platform should not accept .sfc")
	}
}

func TestSelect(t *testing.T) {
	platforms := []Platform{{ID: "nes"}, {ID: "snes"}, {ID: "gba"}}

	if got := Select(platforms, nil); len(got) != 3 {
		t.Errorf("empty selection should return all platforms, got %d", len(got))
	}

	got := Select(platforms, []string{"SNES"})
	if len(got) != 1 || got[0].ID != "snes" {
		t.Errorf("expected only snes selected, got %v", got)
	}
}
