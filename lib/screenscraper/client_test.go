package screenscraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// testdataPath returns the absolute path to the testdata directory.
func testdataPath(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get test file path")
	}
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// loadFixture reads a JSON fixture file from testdata/.
func loadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testdataPath(t), filename))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return data
}

// endpointFixtures maps API endpoints to their fixture files.
var endpointFixtures = map[string]string{
	"/jeuInfos.php":     "game_info.json",
	"/jeuRecherche.php": "search_games.json",
	"/ssuserInfos.php":  "user_info.json",
	"/ssinfraInfos.php": "infra_info.json",
}

// newMockServer creates an httptest.Server that routes requests to fixtures,
// optionally simulating an HTTP error status via an "error" query param.
func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if errCode := r.URL.Query().Get("error"); errCode != "" {
			code := 404
			fmt.Sscanf(errCode, "%d", &code)
			w.WriteHeader(code)
			return
		}

		if fixture, ok := endpointFixtures[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(loadFixture(t, fixture))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(handler)
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient("testdev", "testpass", "testsoft", "testuser", "testuserpass").WithBaseURL(serverURL)
}

func TestGetGameInfo_Success(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)

	resp, err := client.GetGameInfo(context.Background(), GameInfoParams{GameID: "2138"})
	if err != nil {
		t.Fatalf("GetGameInfo() error = %v", err)
	}

	if resp.Header.Success != "true" {
		t.Errorf("expected Header.Success = true, got %v", resp.Header.Success)
	}
	if resp.Response.Game.ID != "2138" {
		t.Errorf("expected Game.ID = 2138, got %v", resp.Response.Game.ID)
	}
	if resp.Response.Game.ROM == nil || resp.Response.Game.ROM.SHA1 == "" {
		t.Error("expected ROM.SHA1 to be populated")
	}
	if len(resp.Response.Game.Medias) == 0 {
		t.Error("expected at least one media entry")
	}
}

func TestGetGameInfo_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.GetGameInfo(context.Background(), GameInfoParams{GameID: "nonexistent"})
	if err == nil {
		t.Fatal("expected an error for 404 response")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound(err) = true, got %v", err)
	}
}

func TestSearchGame_Success(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)

	resp, err := client.SearchGame(context.Background(), SearchGameParams{Query: "Chrono Trigger", SystemID: "4"})
	if err != nil {
		t.Fatalf("SearchGame() error = %v", err)
	}
	if len(resp.Response.Games) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(resp.Response.Games))
	}
}

func TestGetUserInfo_Success(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)

	resp, err := client.GetUserInfo(context.Background())
	if err != nil {
		t.Fatalf("GetUserInfo() error = %v", err)
	}
	if resp.Response.SSUser.MaxThreads != "1" {
		t.Errorf("expected MaxThreads = 1, got %v", resp.Response.SSUser.MaxThreads)
	}
}

func TestGetInfraInfo_Success(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)

	resp, err := client.GetInfraInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfraInfo() error = %v", err)
	}
	if resp.Response.Servers.APIAccess == "" {
		t.Error("expected Servers.APIAccess to be set")
	}
}

func TestRateLimitError(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)
	client.baseURL = server.URL + "?error=429"

	_, err := client.GetUserInfo(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsRateLimited(err) {
		t.Errorf("expected IsRateLimited(err) = true, got %v", err)
	}
}

func TestQuotaExceededError(t *testing.T) {
	server := newMockServer(t)
	defer server.Close()

	client := testClient(t, server.URL)
	client.baseURL = server.URL + "?error=430"

	_, err := client.GetUserInfo(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsQuotaExceeded(err) {
		t.Errorf("expected IsQuotaExceeded(err) = true, got %v", err)
	}
}
