// Package merge applies a resolved uploads playlist to a catalog document.
package merge

import (
	"encoding/json"
	"regexp"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/metrics"
	"github.com/snapetech/vidcat/internal/ytlink"
)

// DefaultTitle names a channel item appended without a page title.
const DefaultTitle = "ProGamer channel"

// Action says which rule touched the catalog.
type Action string

const (
	ActionNone       Action = "none"
	ActionURLMatch   Action = "url_match"
	ActionTitleMatch Action = "title_match"
	ActionAppended   Action = "appended"
)

// titleHeuristic matches channel item titles containing "progamer", any case.
var titleHeuristic = regexp.MustCompile(`(?i)progamer`)

// Input is one merge request.
type Input struct {
	ChannelURL string
	PlaylistID string // uploads playlist; "" means nothing can be merged
	Title      string // title for an appended item; "" = DefaultTitle
	Site       string // site for an appended item; "" = unrestricted
}

// Result reports what Apply did.
type Result struct {
	Action   Action
	Category string // id of the category holding the touched item
	Index    int    // item index within that category
	Changed  bool
}

// Apply merges in into doc. The first channel item whose normalized URL
// equals in.ChannelURL is updated; failing that, the first channel item whose
// title matches the legacy heuristic; failing that, a new channel item is
// appended to the first category, creating a "channels" category when the
// document has none. Exactly one item is touched. Nothing changes when
// in.PlaylistID is empty.
func Apply(doc *catalog.Document, in Input) Result {
	res := apply(doc, in)
	metrics.Merges.WithLabelValues(string(res.Action)).Inc()
	return res
}

func apply(doc *catalog.Document, in Input) Result {
	if doc == nil || in.PlaylistID == "" {
		return Result{Action: ActionNone}
	}
	want := ytlink.Normalize(in.ChannelURL)
	if ci, ii, ok := find(doc, func(it catalog.Item) bool {
		return it.URL != "" && ytlink.Normalize(it.URL) == want
	}); ok {
		setPlaylist(&doc.Categories[ci].Items[ii], in.PlaylistID)
		return Result{Action: ActionURLMatch, Category: doc.Categories[ci].ID, Index: ii, Changed: true}
	}
	if ci, ii, ok := find(doc, func(it catalog.Item) bool {
		return titleHeuristic.MatchString(it.Title)
	}); ok {
		setPlaylist(&doc.Categories[ci].Items[ii], in.PlaylistID)
		return Result{Action: ActionTitleMatch, Category: doc.Categories[ci].ID, Index: ii, Changed: true}
	}

	if len(doc.Categories) == 0 {
		doc.Categories = append(doc.Categories, catalog.Category{ID: "channels", Title: "Channels", Items: []catalog.Item{}})
	}
	first := &doc.Categories[0]
	title := in.Title
	if title == "" {
		title = DefaultTitle
	}
	it := catalog.Item{
		Title: title,
		URL:   in.ChannelURL,
		Type:  catalog.TypeChannel,
		Site:  in.Site,
		Extra: map[string]json.RawMessage{"embed": json.RawMessage("false")},
	}
	setPlaylist(&it, in.PlaylistID)
	first.Items = append(first.Items, it)
	return Result{Action: ActionAppended, Category: first.ID, Index: len(first.Items) - 1, Changed: true}
}

// find returns the first channel item, in document order, satisfying match.
func find(doc *catalog.Document, match func(catalog.Item) bool) (int, int, bool) {
	for ci, c := range doc.Categories {
		for ii, it := range c.Items {
			if it.IsChannel() && match(it) {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func setPlaylist(it *catalog.Item, playlistID string) {
	it.Playlist = playlistID
	it.EmbedURL = ytlink.PlaylistEmbedURL(playlistID)
}
