// Package ytlink classifies YouTube link shapes found in the catalog and derives
// thumbnail and embed URLs from them. All functions are pure and fail soft: a
// malformed URL classifies as "no identifier" instead of returning an error, so
// callers can still render a plain link.
package ytlink

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	thumbnailBase     = "https://img.youtube.com/vi/"
	embedBase         = "https://www.youtube.com/embed/"
	playlistEmbedBase = "https://www.youtube.com/embed?listType=playlist&list="
	channelBase       = "https://www.youtube.com/channel/"
	shortLinkHost     = "youtu.be"
)

// Kind is the shape of a link as far as playback is concerned.
type Kind int

const (
	KindOther Kind = iota
	KindVideo
	KindShort
	KindChannel
	KindPlaylist
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindShort:
		return "short"
	case KindChannel:
		return "channel"
	case KindPlaylist:
		return "playlist"
	default:
		return "other"
	}
}

var autoplayParamRE = regexp.MustCompile(`[?&]autoplay=`)

// parseAbsolute parses raw and rejects anything without a scheme and host,
// matching what a browser URL constructor accepts.
func parseAbsolute(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// IsYouTubeHost reports whether host belongs to youtube.com (any subdomain).
func IsYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

func isShortLinkHost(host string) bool {
	return strings.EqualFold(host, shortLinkHost) || strings.EqualFold(host, "www."+shortLinkHost)
}

// VideoID extracts a single-video identifier from the watch form
// (youtube.com/watch?v=ID), the short-link form (youtu.be/ID) and the
// /shorts/ID form. Channel, playlist and unparseable URLs return ("", false).
func VideoID(raw string) (string, bool) {
	u, ok := parseAbsolute(raw)
	if !ok {
		return "", false
	}
	switch {
	case IsYouTubeHost(u.Host):
		if v := u.Query().Get("v"); v != "" {
			return v, true
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return lastSegment(u.Path)
		}
		return "", false
	case isShortLinkHost(u.Host):
		seg, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if seg == "" {
			return "", false
		}
		return seg, true
	}
	return "", false
}

func lastSegment(p string) (string, bool) {
	p = strings.TrimRight(p, "/")
	i := strings.LastIndex(p, "/")
	seg := p[i+1:]
	if seg == "" || seg == "shorts" {
		return "", false
	}
	return seg, true
}

// Classify returns the link kind. Channel pages (/@handle, /channel/, /c/,
// /user/) and playlists never yield a video id.
func Classify(raw string) Kind {
	u, ok := parseAbsolute(raw)
	if !ok {
		return KindOther
	}
	if isShortLinkHost(u.Host) {
		if _, ok := VideoID(raw); ok {
			return KindVideo
		}
		return KindOther
	}
	if !IsYouTubeHost(u.Host) {
		return KindOther
	}
	p := u.Path
	switch {
	case strings.HasPrefix(p, "/shorts/"):
		if _, ok := VideoID(raw); ok {
			return KindShort
		}
	case u.Query().Get("v") != "":
		return KindVideo
	case strings.HasPrefix(p, "/playlist") && u.Query().Get("list") != "":
		return KindPlaylist
	case strings.HasPrefix(p, "/@"),
		strings.HasPrefix(p, "/channel/"),
		strings.HasPrefix(p, "/c/"),
		strings.HasPrefix(p, "/user/"):
		return KindChannel
	}
	return KindOther
}

// Normalize returns the comparison key for raw: origin plus path with
// trailing slashes stripped. Query string and fragment are ignored. Input
// that does not parse as an absolute URL falls back to the raw string with
// trailing slashes stripped.
func Normalize(raw string) string {
	u, ok := parseAbsolute(raw)
	if !ok {
		return strings.TrimRight(raw, "/")
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	}
	return scheme + "://" + host + strings.TrimRight(u.EscapedPath(), "/")
}

// Thumbnail is the default hosted thumbnail for a video id.
func Thumbnail(videoID string) string {
	return thumbnailBase + url.PathEscape(videoID) + "/hqdefault.jpg"
}

// EmbedURL is the embeddable player URL for a video id.
func EmbedURL(videoID string) string {
	return embedBase + url.PathEscape(videoID)
}

// PlaylistEmbedURL is the embeddable player URL for a playlist id.
func PlaylistEmbedURL(playlistID string) string {
	return playlistEmbedBase + url.QueryEscape(playlistID)
}

// ChannelURL is the canonical channel page for a channel id.
func ChannelURL(channelID string) string {
	return channelBase + channelID
}

// EmbedFor returns the embed target for raw when it names a single video.
func EmbedFor(raw string) (string, bool) {
	id, ok := VideoID(raw)
	if !ok {
		return "", false
	}
	return EmbedURL(id), true
}

// ThumbnailFor returns the derived thumbnail for raw when it names a single video.
func ThumbnailFor(raw string) (string, bool) {
	id, ok := VideoID(raw)
	if !ok {
		return "", false
	}
	return Thumbnail(id), true
}

// AddAutoplay appends an autoplay flag unless u already carries one, so
// repeated application is a no-op.
func AddAutoplay(u string, autoplay bool) string {
	if u == "" || autoplayParamRE.MatchString(u) {
		return u
	}
	v := "0"
	if autoplay {
		v = "1"
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "autoplay=" + v
}

// Label is the card subtype shown under an item title. An explicit channel
// type wins; otherwise the link shape decides.
func Label(itemType, raw string) string {
	if itemType == "channel" {
		return "Channel"
	}
	switch Classify(raw) {
	case KindShort:
		return "Short"
	case KindChannel:
		return "Channel"
	}
	return "Video"
}
