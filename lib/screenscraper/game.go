package screenscraper

import (
	"context"
	"encoding/json"
	"fmt"
)

// GameInfoParams identifies a game either by its numeric ID or by ROM
// metadata (system + filename + hashes), matching how jeuInfos.php accepts
// either form of lookup.
type GameInfoParams struct {
	GameID   string // numeric game ID, when already known
	SystemID string
	ROMName  string
	CRC      string
	MD5      string
	SHA1     string
	ROMSize  string
}

// System identifies the platform a Game belongs to.
type System struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ROM describes the ROM association ScreenScraper has on file for a Game,
// used to recognize update opportunities (§4.4 decision evaluator input).
type ROM struct {
	ID       string `json:"id"`
	Name     string `json:"romfilename"`
	CRC      string `json:"romcrc"`
	MD5      string `json:"rommd5"`
	SHA1     string `json:"romsha1"`
	Size     string `json:"romsize"`
	BeginTag string `json:"beta,omitempty"`
}

// Game is the canonical game record returned by jeuInfos.php and jeuRecherche.php.
type Game struct {
	ID          string          `json:"id"`
	System      System          `json:"systeme"`
	Names       []NameEntry     `json:"noms"`
	Synopses    []LocalizedName `json:"synopsis"`
	Genres      []Genre         `json:"genres"`
	Players     string          `json:"joueurs"`
	Rating      string          `json:"note"`
	ReleaseDate []NameEntry     `json:"dates"`
	Developer   NameEntry       `json:"developpeur"`
	Publisher   NameEntry       `json:"editeur"`
	ROM         *ROM            `json:"rom,omitempty"`
	Medias      []Media         `json:"medias"`
}

// Genre is a minimal genre reference embedded in a Game record; the full
// genre reference table (genresListe.php) is out of scope for this module.
type Genre struct {
	ID    string      `json:"id"`
	Names []NameEntry `json:"noms"`
}

// GameInfoResponse is the complete response for the game info endpoint.
type GameInfoResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Servers ServerInfo `json:"serveurs"`
		SSUser  *UserInfo  `json:"ssuser,omitempty"`
		Game    Game       `json:"jeu"`
	} `json:"response"`
}

// GetGameInfo retrieves full metadata for a single game (jeuInfos.php),
// matched either by numeric ID or by ROM hash/filename/size.
func (c *Client) GetGameInfo(ctx context.Context, params GameInfoParams) (*GameInfoResponse, error) {
	p := map[string]string{
		"jeuid":     params.GameID,
		"systemeid": params.SystemID,
		"romnom":    params.ROMName,
		"crc":       params.CRC,
		"md5":       params.MD5,
		"sha1":      params.SHA1,
		"romtaille": params.ROMSize,
	}

	body, err := c.get(ctx, "jeuInfos.php", p)
	if err != nil {
		return nil, err
	}

	var resp GameInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse game info response: %w", err)
	}

	if err := validateResponse(resp.Header); err != nil {
		return nil, err
	}

	return &resp, nil
}
