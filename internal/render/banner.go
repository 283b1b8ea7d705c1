package render

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/channel"
	"github.com/snapetech/vidcat/internal/ytlink"
)

// ShowChannel repopulates the channel banner. Sources are tried in order: the
// first channel item visible to this site, the metadata API, the static
// profile. The first success wins; with none the banner is cleared. Only runs
// after a successful load.
func (s *Session) ShowChannel(ctx context.Context) BannerSource {
	s.mu.Lock()
	if s.state != StateListed {
		s.mu.Unlock()
		return BannerNone
	}
	gen := s.gen
	s.mu.Unlock()
	return s.refreshChannel(ctx, gen)
}

// refreshChannel looks the channel up without holding the session lock and
// renders it only if load cycle gen is still current.
func (s *Session) refreshChannel(ctx context.Context, gen uint64) BannerSource {
	s.mu.Lock()
	apiKey := s.apiKey
	s.mu.Unlock()

	ch, src := s.pickChannel(ctx, apiKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StateListed {
		return BannerNone
	}
	if embed, ok := s.page.byID("channel-embed-container"); ok {
		embed.Empty()
	}
	s.banner = src
	if src == BannerNone {
		s.channel = nil
		if c, ok := s.page.byID("channel-banner-container"); ok {
			c.Empty()
		}
		return BannerNone
	}
	s.channel = &ch
	s.renderBanner(ch)
	return src
}

// pickChannel reads only the store, which has its own lock, and fields fixed
// at construction.
func (s *Session) pickChannel(ctx context.Context, apiKey string) (channel.Resolved, BannerSource) {
	if it, ok := s.store.ChannelFor(s.site); ok {
		return fromItem(it), BannerCatalog
	}
	if apiKey != "" {
		r := s.resolver
		r.APIKey = apiKey
		r.Profile = s.profile
		query := s.profile.DefaultChannelURL
		if query == "" {
			query = s.profile.ChannelHandle
		}
		if ch, ok := r.Resolve(ctx, query); ok {
			return ch, BannerResolver
		}
	}
	if ch, ok := channel.Fallback(s.profile); ok {
		return ch, BannerFallback
	}
	return channel.Resolved{}, BannerNone
}

func fromItem(it catalog.Item) channel.Resolved {
	return channel.Resolved{
		Type:              catalog.TypeChannel,
		URL:               it.URL,
		AvatarURL:         it.AvatarURL,
		Title:             it.Title,
		UploadsPlaylistID: it.Playlist,
	}
}

func initial(title string) string {
	if title == "" {
		return "C"
	}
	r, _ := utf8.DecodeRuneInString(title)
	return strings.ToUpper(string(r))
}

func (s *Session) renderBanner(ch channel.Resolved) {
	container, ok := s.page.byID("channel-banner-container")
	if !ok {
		return
	}
	container.Empty()

	avatar := element("div", "class", "avatar")
	if ch.AvatarURL != "" {
		alt := ch.Title
		if alt == "" {
			alt = "channel avatar"
		}
		avatar.AppendChild(element("img", "src", ch.AvatarURL, "alt", alt,
			"style", "width:64px;height:64px;border-radius:6px"))
		overlay := element("span", "class", "play-overlay", "style", "cursor:pointer", "data-url", ch.URL)
		appendAll(overlay, fragment(playIcon, overlay)...)
		avatar.AppendChild(overlay)
		s.page.Find(".profile-pic img").SetAttr("src", ch.AvatarURL)
	} else {
		avatar.AppendChild(textNode(initial(ch.Title)))
	}

	title := ch.Title
	if title == "" {
		title = "Channel"
	}
	desc := ch.Description
	if desc == "" {
		desc = ch.URL
	}
	meta := appendAll(element("div", "class", "meta"),
		textElement("h3", title),
		textElement("div", desc, "class", "small"))

	actions := appendAll(element("div", "class", "actions"),
		textElement("button", "Open", "class", "btn small", "data-url", ch.URL),
		textElement("a", "Open on YouTube", "class", "btn small", "href", ch.URL, "target", "_blank", "rel", "noopener noreferrer"))

	container.AppendNodes(appendAll(element("div", "class", "channel-banner"), avatar, meta, actions))
}

// OpenChannel is the banner's Open action: the channel page opens in a new
// browsing context. ok is false when no channel is shown.
func (s *Session) OpenChannel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == nil || s.channel.URL == "" {
		return false
	}
	s.opener.Open(s.channel.URL)
	return true
}

// OpenItem activates an item link. Links with an embed target open the modal
// player with autoplay; anything else goes to the Opener. An item's authored
// embedUrl wins over the derived one.
func (s *Session) OpenItem(raw string) ModalOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw == "" {
		return ModalIgnored
	}
	embed, ok := s.embedFor(raw)
	modal, hasModal := s.page.byID("yt-modal")
	iframe, hasFrame := s.page.byID("yt-iframe")
	if !ok || !hasModal || !hasFrame {
		s.opener.Open(raw)
		return ModalExternal
	}
	iframe.SetAttr("src", ytlink.AddAutoplay(embed, true))
	modal.RemoveClass("hidden")
	modal.SetAttr("aria-hidden", "false")
	return ModalOpened
}

func (s *Session) embedFor(raw string) (string, bool) {
	if s.store.Loaded() {
		for _, c := range s.store.Categories() {
			for _, it := range c.Items {
				if it.URL == raw && it.EmbedURL != "" {
					return it.EmbedURL, true
				}
			}
		}
	}
	return ytlink.EmbedFor(raw)
}

// CloseModal stops playback by clearing the player source, then hides the modal.
func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if iframe, ok := s.page.byID("yt-iframe"); ok {
		iframe.SetAttr("src", "")
	}
	if modal, ok := s.page.byID("yt-modal"); ok {
		modal.AddClass("hidden")
		modal.SetAttr("aria-hidden", "true")
	}
}

// ModalOpen reports whether the modal is visible.
func (s *Session) ModalOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	modal, ok := s.page.byID("yt-modal")
	return ok && !modal.HasClass("hidden")
}
