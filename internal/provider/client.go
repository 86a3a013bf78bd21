package provider

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/oapi-codegen/runtime"

	"github.com/sargunv/curateur/lib/screenscraper"
)

// Endpoint names the Provider calls the throttle tracks separately (§4.6).
const (
	EndpointMatch  = "match"
	EndpointSearch = "search"
	EndpointMedia  = "media"
)

// Sentinel results a media download can produce instead of bytes.
var (
	ErrNoMedia        = screenscraper.ErrNoMedia
	ErrMediaUnchanged = screenscraper.ErrMediaUnchanged
)

// Client is the engine-facing Provider client: match-by-identity, search-by
// name, and media streaming, with the latest server-reported caps retained
// from every response that carries them.
type Client struct {
	ss *screenscraper.Client

	mu   sync.Mutex
	caps Caps
}

// NewClient wraps the wire-format client.
func NewClient(ss *screenscraper.Client) *Client {
	return &Client{ss: ss}
}

// Authenticate performs the run's one up-front credential check (§4.13) and
// returns the caps the Provider grants this account. A rejected account
// lookup (missing or bad user credentials) falls back to the anonymous
// infra endpoint for the non-member thread cap, unless the Provider is
// closed to anonymous users.
func (c *Client) Authenticate(ctx context.Context) (Caps, error) {
	resp, err := c.ss.GetUserInfo(ctx)
	if err != nil {
		if screenscraper.IsAuthenticationError(err) {
			return c.anonymousCaps(ctx, err)
		}
		return Caps{}, fmt.Errorf("authenticate: %w", err)
	}
	caps := capsFromUser(&resp.Response.SSUser)
	c.setCaps(caps)
	return caps, nil
}

func (c *Client) anonymousCaps(ctx context.Context, authErr error) (Caps, error) {
	infra, err := c.ss.GetInfraInfo(ctx)
	if err != nil {
		return Caps{}, fmt.Errorf("authenticate: %w", authErr)
	}

	servers := infra.Response.Servers
	if servers.CloseForNonMember == "1" {
		return Caps{}, fmt.Errorf("authenticate: API closed for anonymous users: %w", authErr)
	}

	caps := Caps{MaxThreads: atoi(servers.MaxThreadForNonMember)}
	if caps.MaxThreads < 1 {
		caps.MaxThreads = 1
	}
	c.setCaps(caps)
	return caps, nil
}

// Match looks a ROM up by identity (§6.1 match-by-identity). A not-found is
// returned as an error classified KindNotFound, never as a nil record.
func (c *Client) Match(ctx context.Context, id Identity) (*Record, error) {
	// The size travels as a decimal string; rendered through the same
	// query-param styling the generated clients use.
	sizeParam, err := runtime.StyleParamWithLocation("simple", false, "romtaille", runtime.ParamLocationQuery, id.Size)
	if err != nil {
		return nil, fmt.Errorf("encode rom size: %w", err)
	}

	resp, err := c.ss.GetGameInfo(ctx, screenscraper.GameInfoParams{
		SystemID: id.PlatformCode,
		ROMName:  id.FileName,
		ROMSize:  sizeParam,
		CRC:      id.CRC32,
		MD5:      id.MD5,
		SHA1:     id.SHA1,
	})
	if err != nil {
		return nil, err
	}

	c.noteUser(resp.Response.SSUser)

	if resp.Response.Game.ID == "" {
		return nil, screenscraper.ErrNotFound
	}
	return fromGame(&resp.Response.Game), nil
}

// Search runs the name-search fallback (§6.1 search-by-name) and returns
// candidates in the Provider's probability order. Zero candidates is not an
// error.
func (c *Client) Search(ctx context.Context, platformCode, query string) ([]*Record, error) {
	resp, err := c.ss.SearchGame(ctx, screenscraper.SearchGameParams{
		Query:    query,
		SystemID: platformCode,
	})
	if err != nil {
		if screenscraper.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	c.noteUser(resp.Response.SSUser)

	records := make([]*Record, 0, len(resp.Response.Games))
	for i := range resp.Response.Games {
		records = append(records, fromGame(&resp.Response.Games[i]))
	}
	return records, nil
}

// OpenMedia streams a media asset's URL. The caller owns the reader.
// Returns ErrNoMedia / ErrMediaUnchanged for the Provider's sentinel bodies.
func (c *Client) OpenMedia(ctx context.Context, url string) (io.ReadCloser, error) {
	return c.ss.DownloadMediaURL(ctx, url)
}

// OpenGameMedia streams an asset through the parametrized media endpoint,
// the fallback for media items whose record carried no direct URL. mediaID
// is the Provider's composite identifier, e.g. "box-2D(us)".
func (c *Client) OpenGameMedia(ctx context.Context, platformCode, gameID, mediaID string) (io.ReadCloser, error) {
	return c.ss.DownloadGameMedia(ctx, screenscraper.DownloadMediaParams{
		SystemID: platformCode,
		GameID:   gameID,
		Media:    mediaID,
	})
}

// Caps returns the most recent server-reported limits.
func (c *Client) Caps() Caps {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Client) setCaps(caps Caps) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caps = caps
}

// noteUser refreshes retained caps from a response's optional user block,
// keeping the daily-usage figure current as the run progresses.
func (c *Client) noteUser(u *screenscraper.UserInfo) {
	if u == nil {
		return
	}
	c.setCaps(capsFromUser(u))
}
