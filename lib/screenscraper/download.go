package screenscraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Media endpoints answer with a short text body instead of image bytes when
// there is nothing to send: "NOMEDIA" when the media doesn't exist, and
// "CRCOK"/"MD5OK"/"SHA1OK" when the hash supplied in the request matches the
// server's copy (update optimization).
var (
	ErrNoMedia        = errors.New("screenscraper: media not available")
	ErrMediaUnchanged = errors.New("screenscraper: media unchanged (hash matched)")
)

// DownloadMediaParams parameters for game media download (mediaJeu.php).
type DownloadMediaParams struct {
	// Hash of existing local file (for deduplication)
	CRC  string
	MD5  string
	SHA1 string

	// Required
	SystemID string
	GameID   string
	Media    string // media identifier like "box-2D(us)", "wheel-hd(eu)", etc.

	// Output options
	MaxWidth     string
	MaxHeight    string
	OutputFormat string // "png" or "jpg"
}

// DownloadGameMedia streams game image media (mediaJeu.php). The caller owns
// the returned reader and must close it. Returns ErrNoMedia or
// ErrMediaUnchanged for the API's sentinel text bodies.
func (c *Client) DownloadGameMedia(ctx context.Context, params DownloadMediaParams) (io.ReadCloser, error) {
	u, err := url.Parse(c.baseURL + "/mediaJeu.php")
	if err != nil {
		return nil, fmt.Errorf("invalid media endpoint: %w", err)
	}

	q := u.Query()
	q.Set("devid", c.devID)
	q.Set("devpassword", c.devPassword)
	q.Set("softname", c.softName)
	if c.ssID != "" {
		q.Set("ssid", c.ssID)
	}
	if c.ssPassword != "" {
		q.Set("sspassword", c.ssPassword)
	}
	for k, v := range map[string]string{
		"crc":          params.CRC,
		"md5":          params.MD5,
		"sha1":         params.SHA1,
		"systemeid":    params.SystemID,
		"jeuid":        params.GameID,
		"media":        params.Media,
		"maxwidth":     params.MaxWidth,
		"maxheight":    params.MaxHeight,
		"outputformat": params.OutputFormat,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return c.stream(ctx, u.String())
}

// DownloadMediaURL streams a media URL taken verbatim from a game record's
// medias list. Those URLs already carry the media identity; only credentials
// are appended, and only when the URL points back at the API itself.
func (c *Client) DownloadMediaURL(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid media URL %q: %w", rawURL, err)
	}

	if base, berr := url.Parse(c.baseURL); berr == nil && u.Host == base.Host {
		q := u.Query()
		q.Set("devid", c.devID)
		q.Set("devpassword", c.devPassword)
		q.Set("softname", c.softName)
		if c.ssID != "" {
			q.Set("ssid", c.ssID)
		}
		if c.ssPassword != "" {
			q.Set("sspassword", c.ssPassword)
		}
		u.RawQuery = q.Encode()
	}

	return c.stream(ctx, u.String())
}

// stream issues a GET and hands back the body for streaming consumption,
// after converting error statuses and sentinel text bodies.
func (c *Client) stream(ctx context.Context, fullURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		apiErr := newAPIError(resp.StatusCode, string(body))
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, apiErr
	}

	return checkMediaSentinel(resp.Body)
}

// checkMediaSentinel peeks at the start of a media body to catch the API's
// text sentinels, which are all shorter than any real image payload.
func checkMediaSentinel(body io.ReadCloser) (io.ReadCloser, error) {
	head := make([]byte, 16)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		body.Close()
		return nil, fmt.Errorf("read media body: %w", err)
	}

	switch string(head[:n]) {
	case "NOMEDIA":
		body.Close()
		return nil, ErrNoMedia
	case "CRCOK", "MD5OK", "SHA1OK":
		body.Close()
		return nil, ErrMediaUnchanged
	}

	return &prefixedReadCloser{
		Reader: io.MultiReader(bytes.NewReader(head[:n]), body),
		closer: body,
	}, nil
}

type prefixedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (p *prefixedReadCloser) Close() error { return p.closer.Close() }
