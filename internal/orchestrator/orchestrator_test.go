package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sargunv/curateur/internal/provider"
	"github.com/sargunv/curateur/lib/esde"
	"github.com/sargunv/curateur/lib/screenscraper"
)

const indexXML = `<?xml version="1.0"?>
<systemList>
  <system>
    <name>nes</name>
    <fullname>Nintendo Entertainment System</fullname>
    <path>%ROMPATH%/nes</path>
    <extension>.nes .zip</extension>
    <platform>nes</platform>
  </system>
</systemList>`

const userInfoBody = `{
  "header": {"success": "true"},
  "response": {
    "ssuser": {"id": "tester", "maxthreads": "2", "maxrequestspermin": "600", "maxrequestsperday": "100000", "requeststoday": "0"}
  }
}`

// testEnv is one scratch installation: rom/media/catalog roots plus a fake
// Provider that counts lookup and media calls.
type testEnv struct {
	romRoot     string
	mediaRoot   string
	catalogRoot string
	indexPath   string

	server      *httptest.Server
	lookupCalls atomic.Int64
	mediaCalls  atomic.Int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		romRoot:     filepath.Join(root, "roms"),
		mediaRoot:   filepath.Join(root, "media"),
		catalogRoot: filepath.Join(root, "catalogs"),
		indexPath:   filepath.Join(root, "es_systems.xml"),
	}

	if err := os.MkdirAll(filepath.Join(env.romRoot, "nes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.indexPath, []byte(indexXML), 0o644); err != nil {
		t.Fatal(err)
	}

	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatal(err)
	}
	imgBytes := imgBuf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/ssuserInfos.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(userInfoBody))
	})
	mux.HandleFunc("/jeuInfos.php", func(w http.ResponseWriter, r *http.Request) {
		env.lookupCalls.Add(1)
		fmt.Fprintf(w, `{
  "header": {"success": "true"},
  "response": {
    "jeu": {
      "id": "777",
      "noms": [{"region": "wor", "text": "World Explorer"}],
      "synopsis": [{"langue": "en", "text": "Explore the world."}],
      "developpeur": {"text": "Example Dev"},
      "editeur": {"text": "Example Pub"},
      "joueurs": "1",
      "note": "16",
      "dates": [{"region": "wor", "text": "1991-06-01"}],
      "medias": [
        {"type": "box-2D", "region": "wor", "format": "png", "url": %q},
        {"type": "ss", "region": "wor", "format": "png", "url": %q}
      ]
    }
  }
}`, env.server.URL+"/media/box.png", env.server.URL+"/media/ss.png")
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		env.mediaCalls.Add(1)
		w.Write(imgBytes)
	})

	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) orchestrator(mutate func(*Config)) *Orchestrator {
	cfg := DefaultConfig()
	cfg.RomRoot = env.romRoot
	cfg.MediaRoot = env.mediaRoot
	cfg.CatalogRoot = env.catalogRoot
	cfg.PlatformIndex = env.indexPath
	cfg.Platforms = []string{"nes"}
	cfg.MediaTypes = []string{"covers", "screenshots"}
	cfg.Languages = []string{"en"}
	if mutate != nil {
		mutate(&cfg)
	}

	ss := screenscraper.NewClient("dev", "devpass", "curateur-test", "user", "pass").WithBaseURL(env.server.URL)
	return New(cfg, provider.NewClient(ss), nil, nil)
}

func (env *testEnv) writeROM(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(env.romRoot, "nes", name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// A fresh single-file ROM end to end: full scrape, media on disk,
// provenance hash equals the ROM's CRC32.
func TestRun_FreshScrape(t *testing.T) {
	env := newTestEnv(t)
	romBytes := []byte("not a real rom, but hashable all the same")
	env.writeROM(t, "World Explorer (World).nes", romBytes)

	o := env.orchestrator(nil)
	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Platforms) != 1 {
		t.Fatalf("platforms = %d, want 1", len(result.Platforms))
	}
	pr := result.Platforms[0]
	if pr.Scanned != 1 || pr.FullScraped != 1 {
		t.Errorf("counts = %+v", pr)
	}

	// Catalog written with provider fields.
	data, err := os.ReadFile(filepath.Join(env.catalogRoot, "nes", "gamelist.xml"))
	if err != nil {
		t.Fatalf("read gamelist: %v", err)
	}
	list, err := esde.Parse(data)
	if err != nil {
		t.Fatalf("parse gamelist: %v", err)
	}
	if len(list.Games) != 1 {
		t.Fatalf("games = %d, want 1", len(list.Games))
	}
	g := list.Games[0]
	if g.Name != "World Explorer" || g.Desc != "Explore the world." {
		t.Errorf("game = %+v", g)
	}
	if g.Path != "./World Explorer (World).nes" {
		t.Errorf("path = %q", g.Path)
	}

	// Media files placed by type and basename.
	for _, typ := range []string{"covers", "screenshots"} {
		path := filepath.Join(env.mediaRoot, "nes", typ, "World Explorer (World).png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing media file %s: %v", path, err)
		}
	}

	// Provenance records the identity hash (CRC32 of the ROM bytes).
	wantHash := fmt.Sprintf("%08X", crc32.ChecksumIEEE(romBytes))
	provData, err := os.ReadFile(filepath.Join(env.catalogRoot, "nes", "provenance.json"))
	if err != nil {
		t.Fatalf("read provenance: %v", err)
	}
	var prov map[string]struct {
		IdentityHash string            `json:"identity_hash"`
		MediaHashes  map[string]string `json:"media_hashes"`
	}
	if err := json.Unmarshal(provData, &prov); err != nil {
		t.Fatalf("parse provenance: %v", err)
	}
	rec, ok := prov["World Explorer (World)"]
	if !ok {
		t.Fatalf("no provenance record; have %v", prov)
	}
	if rec.IdentityHash != wantHash {
		t.Errorf("identity hash = %s, want %s", rec.IdentityHash, wantHash)
	}
	if len(rec.MediaHashes) != 2 {
		t.Errorf("media hashes = %v, want 2 entries", rec.MediaHashes)
	}

	// Summary artifact exists and is greppable.
	entries, _ := os.ReadDir(filepath.Join(env.catalogRoot, "nes"))
	foundSummary := false
	for _, de := range entries {
		if strings.HasPrefix(de.Name(), "curateur_summary_") {
			foundSummary = true
		}
	}
	if !foundSummary {
		t.Error("no summary artifact written")
	}
}

// A second run over a fully-scraped catalog must be a no-op: zero lookup
// and media calls, byte-identical catalog.
func TestRun_NoOpSecondRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeROM(t, "World Explorer (World).nes", []byte("rom bytes"))

	o := env.orchestrator(nil)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	gamelistPath := filepath.Join(env.catalogRoot, "nes", "gamelist.xml")
	before, err := os.ReadFile(gamelistPath)
	if err != nil {
		t.Fatal(err)
	}

	env.lookupCalls.Store(0)
	env.mediaCalls.Store(0)

	o2 := env.orchestrator(nil)
	result, err := o2.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := env.lookupCalls.Load(); got != 0 {
		t.Errorf("second run made %d lookup calls, want 0", got)
	}
	if got := env.mediaCalls.Load(); got != 0 {
		t.Errorf("second run made %d media calls, want 0", got)
	}
	if result.Platforms[0].Skipped != 1 {
		t.Errorf("second run: %+v, want one skipped entry", result.Platforms[0])
	}

	after, err := os.ReadFile(gamelistPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("catalog changed across a no-op run:\n%s\nvs\n%s", before, after)
	}
}

// User edits and unknown elements survive an update run.
func TestRun_PreservesUserEdits(t *testing.T) {
	env := newTestEnv(t)
	env.writeROM(t, "World Explorer (World).nes", []byte("rom bytes"))

	o := env.orchestrator(nil)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// Operator marks it a favorite and a frontend adds its own element.
	gamelistPath := filepath.Join(env.catalogRoot, "nes", "gamelist.xml")
	data, _ := os.ReadFile(gamelistPath)
	edited := strings.Replace(string(data), "</game>",
		"  <favorite>true</favorite>\n    <mycustom>tag</mycustom>\n  </game>", 1)
	if err := os.WriteFile(gamelistPath, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	o2 := env.orchestrator(func(c *Config) {
		c.UpdatePolicy = "always"
		c.SkipScraped = false
	})
	if _, err := o2.Run(context.Background()); err != nil {
		t.Fatalf("update Run() error = %v", err)
	}

	after, _ := os.ReadFile(gamelistPath)
	if !strings.Contains(string(after), "<favorite>true</favorite>") {
		t.Error("favorite flag lost across an update run")
	}
	if !strings.Contains(string(after), "<mycustom>tag</mycustom>") {
		t.Error("unknown element lost across an update run")
	}
}

// Dry run performs lookups but writes nothing.
func TestRun_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeROM(t, "World Explorer (World).nes", []byte("rom bytes"))

	o := env.orchestrator(func(c *Config) { c.DryRun = true })
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if env.lookupCalls.Load() == 0 {
		t.Error("dry run skipped the match lookup; it should still resolve records")
	}
	if env.mediaCalls.Load() != 0 {
		t.Error("dry run downloaded media")
	}
	if _, err := os.Stat(filepath.Join(env.catalogRoot, "nes", "gamelist.xml")); !os.IsNotExist(err) {
		t.Error("dry run wrote a gamelist")
	}
}

// A fatal Provider error aborts the run with an error.
func TestRun_FatalAuth(t *testing.T) {
	env := newTestEnv(t)
	env.writeROM(t, "World Explorer (World).nes", []byte("rom bytes"))

	// Replace the user endpoint with a 403.
	badMux := http.NewServeMux()
	badMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	badServer := httptest.NewServer(badMux)
	t.Cleanup(badServer.Close)

	cfg := DefaultConfig()
	cfg.RomRoot = env.romRoot
	cfg.MediaRoot = env.mediaRoot
	cfg.CatalogRoot = env.catalogRoot
	cfg.PlatformIndex = env.indexPath
	cfg.Languages = []string{"en"}

	ss := screenscraper.NewClient("dev", "bad", "curateur-test", "", "").WithBaseURL(badServer.URL)
	o := New(cfg, provider.NewClient(ss), nil, nil)

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded against a 403 Provider")
	}
}
