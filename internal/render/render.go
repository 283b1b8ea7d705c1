// Package render projects the catalog and a resolved channel onto a page: the
// site list, the category selector and cards, the channel banner and the
// embed modal. A Session is the view-model for one page view; every user
// action is a named operation returning an explicit outcome.
package render

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/channel"
	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/ytlink"
)

// User-visible messages.
const (
	MsgUnavailable = "Could not load categories.json."
	MsgNotFound    = "Category not found."
	MsgEmpty       = "No items in this category yet."
)

// State is the page's position in the load cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateListed
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateListed:
		return "listed"
	case StateUnavailable:
		return "unavailable"
	default:
		return "idle"
	}
}

// CategoryOutcome is the result of showing a category.
type CategoryOutcome int

const (
	CategoryShown CategoryOutcome = iota
	CategoryEmpty
	CategoryNotFound
)

func (o CategoryOutcome) String() string {
	switch o {
	case CategoryEmpty:
		return "empty"
	case CategoryNotFound:
		return "not found"
	default:
		return "shown"
	}
}

// BannerSource says which tier supplied the channel banner.
type BannerSource int

const (
	BannerNone BannerSource = iota
	BannerCatalog
	BannerResolver
	BannerFallback
)

func (b BannerSource) String() string {
	switch b {
	case BannerCatalog:
		return "catalog"
	case BannerResolver:
		return "resolver"
	case BannerFallback:
		return "fallback"
	default:
		return "none"
	}
}

// ModalOutcome is the result of activating an item link.
type ModalOutcome int

const (
	ModalIgnored ModalOutcome = iota
	ModalOpened
	ModalExternal
)

func (m ModalOutcome) String() string {
	switch m {
	case ModalOpened:
		return "modal"
	case ModalExternal:
		return "external"
	default:
		return "ignored"
	}
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string)

func (f OpenerFunc) Open(url string) { f(url) }

// Options configures a Session.
type Options struct {
	Catalog  catalog.Source
	Runtime  catalog.Source    // optional runtime config document; nil = none
	Resolver *channel.Resolver // base resolver; the runtime key overrides its APIKey
	Profile  config.Profile
	Opener   Opener // nil = discard
	Path     string // page path, e.g. /sites/haris/index.html
	Fragment string // initial URL fragment, with or without '#'
}

// Session is the view-model for one page view.
type Session struct {
	mu       sync.Mutex
	page     *Page
	store    *catalog.Store
	runtime  catalog.Source
	resolver channel.Resolver
	profile  config.Profile
	opener   Opener
	site     string

	state    State
	gen      uint64 // load cycle; bumped by Reload
	fragment string
	current  string
	apiKey   string
	channel  *channel.Resolved
	banner   BannerSource
}

// NewSession binds a page to its catalog. Nothing is fetched until Mount.
func NewSession(page *Page, opts Options) *Session {
	if page == nil {
		page = NewSkeletonPage()
	}
	s := &Session{
		page:     page,
		store:    catalog.NewStore(opts.Catalog),
		runtime:  opts.Runtime,
		profile:  opts.Profile,
		opener:   opts.Opener,
		site:     SiteFromPath(opts.Path),
		fragment: strings.TrimPrefix(opts.Fragment, "#"),
	}
	if opts.Resolver != nil {
		s.resolver = *opts.Resolver
	}
	if s.opener == nil {
		s.opener = OpenerFunc(func(string) {})
	}
	return s
}

// SiteFromPath returns the site name from a /sites/<name>/... path, or "".
func SiteFromPath(p string) string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	for i, seg := range parts {
		if seg == "sites" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func (s *Session) Page() *Page { return s.page }

func (s *Session) Site() string { return s.site }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current is the selected category id.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Fragment is the URL fragment without '#'.
func (s *Session) Fragment() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fragment
}

// Channel is the channel resolved in the current load cycle.
func (s *Session) Channel() (channel.Resolved, BannerSource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == nil {
		return channel.Resolved{}, s.banner, false
	}
	return *s.channel, s.banner, true
}

// Mount prepares widgets that need no catalog data (the modal starts hidden)
// and runs the first load. A load failure leaves those widgets usable.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	if modal, ok := s.page.byID("yt-modal"); ok {
		modal.AddClass("hidden")
		modal.SetAttr("aria-hidden", "true")
	}
	s.mu.Unlock()
	return s.Reload(ctx)
}

// Reload runs a full load cycle: fetch the catalog fresh, render the site list
// and selector, show the initial category, read the runtime config and then
// populate the banner. On failure the categories widget shows MsgUnavailable,
// the state becomes StateUnavailable and the error wraps catalog.ErrUnavailable.
//
// The session is unlocked while the runtime config and the channel are looked
// up, so navigation keeps working while the banner is pending. A banner result
// from a superseded cycle is dropped.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.channel = nil
	s.banner = BannerNone
	s.setReloadText("Reloading...")

	if err := s.store.Load(ctx); err != nil {
		log.Printf("render: load catalog: %v", err)
		s.state = StateUnavailable
		if el, ok := s.page.byID("categories"); ok {
			setMessage(el, MsgUnavailable)
		}
		s.setReloadText("Reload")
		s.mu.Unlock()
		return err
	}
	s.state = StateListed
	s.renderSites()
	s.renderCategorySelect()
	if id := s.initialCategory(); id != "" {
		s.showCategory(id)
	}
	s.mu.Unlock()

	key := s.runtimeKey(ctx)
	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.apiKey = key
	}
	s.mu.Unlock()
	if current {
		s.refreshChannel(ctx, gen)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.setReloadText("Reload")
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) setReloadText(text string) {
	if btn, ok := s.page.byID("reload-categories"); ok {
		setMessage(btn, text)
	}
}

func (s *Session) initialCategory() string {
	if s.fragment != "" && s.store.HasCategory(s.fragment) {
		return s.fragment
	}
	id, _ := s.store.FirstCategoryID()
	return id
}

// runtimeKey returns the metadata API key for this cycle: the runtime config's
// key when it has one, else the resolver's. Called without the session lock.
func (s *Session) runtimeKey(ctx context.Context) string {
	key := s.resolver.APIKey
	if s.runtime == nil {
		return key
	}
	data, err := s.runtime.Fetch(ctx)
	if err != nil {
		return key
	}
	rt, err := config.ParseRuntime(data)
	if err != nil {
		log.Printf("render: %v", err)
		return key
	}
	if rt.YTAPIKey != "" {
		return rt.YTAPIKey
	}
	return key
}

func (s *Session) renderSites() {
	list, hasList := s.page.byID("sites-list")
	nav, hasNav := s.page.byID("site-nav")
	if hasList {
		list.Empty()
	}
	if hasNav {
		nav.Empty()
	}
	for _, site := range s.store.Sites() {
		href := site.Path + "/index.html"
		if hasList {
			li := element("li")
			li.AppendChild(textElement("a", site.DisplayTitle(), "href", href, "class", "btn small"))
			if site.Description != "" {
				li.AppendChild(textElement("div", site.Description, "class", "small"))
			}
			list.AppendNodes(li)
		}
		if hasNav {
			nav.AppendNodes(textElement("a", site.DisplayTitle(), "href", href))
		}
	}
}

func (s *Session) renderCategorySelect() {
	sel, ok := s.page.byID("category-select")
	if !ok {
		return
	}
	sel.Empty()
	for _, c := range s.store.Categories() {
		sel.AppendNodes(textElement("option", c.DisplayTitle(), "value", c.ID))
	}
}

// ShowCategory renders the items of category id visible in this page's site.
func (s *Session) ShowCategory(id string) CategoryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showCategory(id)
}

// SelectCategory is a selector change: it sets the fragment and shows id.
// An empty id is ignored and reported as not found.
func (s *Session) SelectCategory(id string) CategoryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		return CategoryNotFound
	}
	s.fragment = id
	return s.showCategory(id)
}

// HashChanged reacts to a fragment change. ok is false for an empty fragment,
// which leaves the view as is.
func (s *Session) HashChanged(fragment string) (CategoryOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimPrefix(fragment, "#")
	s.fragment = id
	if id == "" {
		return CategoryNotFound, false
	}
	return s.showCategory(id), true
}

func (s *Session) showCategory(id string) CategoryOutcome {
	container, hasContainer := s.page.byID("categories")
	if hasContainer {
		container.Empty()
	}
	sel, err := s.store.SelectCategory(id, s.site)
	if err != nil {
		if hasContainer {
			setMessage(container, MsgNotFound)
		}
		return CategoryNotFound
	}
	s.current = id
	s.markSelected(id)
	if sel.Empty {
		if hasContainer {
			container.AppendNodes(textElement("p", MsgEmpty, "class", "small"))
		}
		return CategoryEmpty
	}
	if hasContainer {
		for _, it := range sel.Items {
			container.AppendNodes(card(it))
		}
	}
	return CategoryShown
}

func (s *Session) markSelected(id string) {
	s.page.Find("#category-select option").Each(func(_ int, opt *goquery.Selection) {
		if v, _ := opt.Attr("value"); v == id {
			opt.SetAttr("selected", "selected")
		} else {
			opt.RemoveAttr("selected")
		}
	})
}

const thumbStyle = "width:128px;height:72px;object-fit:cover;border-radius:6px"

// Thumbnail picks the card image: explicit thumbnail, then avatar, then the
// hosted thumbnail of the linked video. "" means a blank placeholder.
func Thumbnail(it catalog.Item) string {
	if it.Thumbnail != "" {
		return it.Thumbnail
	}
	if it.AvatarURL != "" {
		return it.AvatarURL
	}
	if src, ok := ytlink.ThumbnailFor(it.URL); ok {
		return src
	}
	return ""
}

func card(it catalog.Item) *html.Node {
	href := it.URL
	if href == "" {
		href = "#"
	}
	alt := it.Title
	if alt == "" {
		alt = "thumbnail"
	}
	src := Thumbnail(it)
	imgAttrs := []string{"alt", alt, "src", src, "style", thumbStyle}
	if src == "" {
		imgAttrs[5] = thumbStyle + ";background:#ddd"
		imgAttrs = append(imgAttrs, "class", "placeholder")
	}
	thumbLink := appendAll(element("a", "href", href, "target", "_blank", "rel", "noopener noreferrer", "data-url", it.URL),
		element("img", imgAttrs...))
	titleLink := textElement("a", it.DisplayTitle(), "href", href, "target", "_blank", "rel", "noopener noreferrer", "data-url", it.URL)
	subtype := textElement("div", ytlink.Label(it.Type, it.URL), "class", "small")
	meta := appendAll(element("div", "class", "meta"), titleLink, subtype)
	return appendAll(element("div", "class", "category-card", "data-url", it.URL), thumbLink, meta)
}
