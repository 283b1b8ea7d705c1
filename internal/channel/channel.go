// Package channel resolves a channel handle or URL into display metadata using
// the YouTube Data API, with a static fallback from the site profile.
//
// Resolution is best-effort: every transport, status or decode failure is
// logged and reported as "no result" so the caller can move on to the next
// banner source.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/httpclient"
	"github.com/snapetech/vidcat/internal/metrics"
	"github.com/snapetech/vidcat/internal/ytlink"
)

// maxResponseBytes caps metadata API responses.
const maxResponseBytes = 1 << 20

// Resolved is a channel ready for banner rendering. It lives for one load cycle.
type Resolved struct {
	Type              string `json:"type"`
	URL               string `json:"url"`
	AvatarURL         string `json:"avatarUrl,omitempty"`
	Title             string `json:"title,omitempty"`
	Description       string `json:"description,omitempty"`
	UploadsPlaylistID string `json:"uploadsPlaylistId,omitempty"`
}

// Resolver looks channels up through the metadata API.
type Resolver struct {
	APIKey  string
	Base    string       // "" = config.DefaultYTAPIBase
	Client  *http.Client // nil = httpclient.Default()
	Profile config.Profile
}

// Fallback is the channel built from static profile configuration. ok is false
// when the profile names no default channel.
func Fallback(p config.Profile) (Resolved, bool) {
	if p.DefaultChannelURL == "" {
		return Resolved{}, false
	}
	title := p.ChannelHandle
	if title == "" {
		title = "Channel"
	}
	return Resolved{
		Type:        "channel",
		URL:         p.DefaultChannelURL,
		AvatarURL:   p.ProfileAvatar,
		Title:       title,
		Description: "Official channel",
	}, true
}

// ParseQuery turns a handle or URL into a channel search query. "@handle" is
// kept verbatim, youtube.com/channel/<id> yields the id, other youtube.com
// paths yield the path plus query as free text, youtu.be yields its path, and
// anything that is not an absolute URL is passed through unchanged.
func ParseQuery(handleOrURL string) string {
	s := strings.TrimSpace(handleOrURL)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case ytlink.IsYouTubeHost(host):
		p := strings.TrimPrefix(u.Path, "/")
		if strings.HasPrefix(p, "@") {
			return p
		}
		if rest, ok := strings.CutPrefix(p, "channel/"); ok {
			id, _, _ := strings.Cut(rest, "/")
			return id
		}
		q := u.Path
		if u.RawQuery != "" {
			q += " ?" + u.RawQuery
		}
		return strings.TrimSpace(q)
	case host == "youtu.be":
		return strings.TrimPrefix(u.Path, "/")
	}
	return s
}

type thumbnail struct {
	URL string `json:"url"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				Default *thumbnail `json:"default"`
				Medium  *thumbnail `json:"medium"`
				High    *thumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Resolve looks up handleOrURL. It returns ok=false when no API key is set,
// the query is empty, the search has no results, or any call fails.
func (r *Resolver) Resolve(ctx context.Context, handleOrURL string) (Resolved, bool) {
	if r == nil || strings.TrimSpace(r.APIKey) == "" {
		metrics.ChannelLookups.WithLabelValues("no_key").Inc()
		return Resolved{}, false
	}
	q := ParseQuery(handleOrURL)
	if q == "" {
		metrics.ChannelLookups.WithLabelValues("no_query").Inc()
		return Resolved{}, false
	}
	var sr searchResponse
	err := r.get(ctx, "search", url.Values{
		"part": {"snippet"},
		"type": {"channel"},
		"q":    {q},
	}, &sr)
	if err != nil {
		log.Printf("channel: search %q failed: %v", q, err)
		metrics.ChannelLookups.WithLabelValues("error").Inc()
		return Resolved{}, false
	}
	if len(sr.Items) == 0 {
		metrics.ChannelLookups.WithLabelValues("miss").Inc()
		return Resolved{}, false
	}
	first := sr.Items[0]
	channelID := first.ID.ChannelID

	var uploads string
	if channelID != "" {
		var cr channelsResponse
		err := r.get(ctx, "channels", url.Values{
			"part": {"contentDetails"},
			"id":   {channelID},
		}, &cr)
		if err != nil {
			log.Printf("channel: contentDetails %s failed: %v", channelID, err)
		} else if len(cr.Items) > 0 {
			uploads = cr.Items[0].ContentDetails.RelatedPlaylists.Uploads
		}
	}

	out := Resolved{
		Type:              "channel",
		URL:               handleOrURL,
		AvatarURL:         r.Profile.ProfileAvatar,
		Title:             first.Snippet.Title,
		Description:       first.Snippet.Description,
		UploadsPlaylistID: uploads,
	}
	if channelID != "" {
		out.URL = ytlink.ChannelURL(channelID)
	} else if out.URL == "" {
		out.URL = r.Profile.DefaultChannelURL
	}
	th := first.Snippet.Thumbnails
	for _, t := range []*thumbnail{th.High, th.Medium, th.Default} {
		if t != nil && t.URL != "" {
			out.AvatarURL = t.URL
			break
		}
	}
	if out.Title == "" {
		out.Title = r.Profile.ChannelHandle
	}
	if out.Title == "" {
		out.Title = "Channel"
	}
	if out.Description == "" {
		out.Description = "Channel"
	}
	metrics.ChannelLookups.WithLabelValues("ok").Inc()
	return out, true
}

func (r *Resolver) get(ctx context.Context, endpoint string, params url.Values, into any) error {
	base := strings.TrimSuffix(r.Base, "/")
	if base == "" {
		base = config.DefaultYTAPIBase
	}
	params.Set("key", r.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpclient.UserAgent)
	client := r.Client
	if client == nil {
		client = httpclient.Default()
	}
	resp, err := client.Do(req)
	if err != nil {
		// url.Error carries the request URL, which includes the key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%s: HTTP %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(into); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}
