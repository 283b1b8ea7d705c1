// Package scrape fetches a channel's public page and pulls its channel
// identifier out of the embedded page metadata.
package scrape

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"

	"github.com/snapetech/vidcat/internal/httpclient"
)

// maxPageBytes caps how much decoded markup is read from a channel page.
const maxPageBytes = 16 << 20

// ErrNoChannelID is returned when neither metadata pattern matches.
var ErrNoChannelID = errors.New("scrape: channel id not found")

var channelIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"channelId"\s*:\s*"(UC[^"]+)"`),
	regexp.MustCompile(`"externalId"\s*:\s*"(UC[^"]+)"`),
}

// ExtractChannelID finds the channel id embedded in page markup. The
// "channelId" key is tried before "externalId"; the first match wins.
func ExtractChannelID(markup string) (string, bool) {
	for _, re := range channelIDPatterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// UploadsPlaylistID derives a channel's uploads playlist id: "UC…" becomes
// "UU…". Ids without the UC prefix yield "".
func UploadsPlaylistID(channelID string) string {
	if !strings.HasPrefix(channelID, "UC") {
		return ""
	}
	return "UU" + channelID[2:]
}

// PageTitle returns the page's og:title, else its <title>, trimmed.
func PageTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// StatusError is a non-2xx response from the channel page.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scrape %s: HTTP %d", e.URL, e.Status)
}

// Fetcher performs a single GET of a channel page. No retries.
type Fetcher struct {
	Client    *http.Client // nil = httpclient.Default()
	UserAgent string       // "" = httpclient.UserAgent
}

// Fetch returns the decoded page markup. Transport failures and non-2xx
// responses are errors; a *StatusError carries the status.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	client := f.Client
	if client == nil {
		client = httpclient.Default()
	}
	ua := f.UserAgent
	if ua == "" {
		ua = httpclient.UserAgent
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("scrape: build request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	// Setting Accept-Encoding ourselves turns off the transport's transparent
	// gzip handling, so decode both encodings here.
	req.Header.Set("Accept-Encoding", "br, gzip")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return "", &StatusError{URL: pageURL, Status: resp.StatusCode}
	}
	body, err := decodeBody(resp)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	data, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("scrape %s: read body: %w", pageURL, err)
	}
	return string(data), nil
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "", "identity":
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
