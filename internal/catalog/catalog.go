package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// TypeChannel marks an item as a creator's channel page. Items without a type
// are videos.
const TypeChannel = "channel"

// ErrParse is returned when a catalog document is not valid JSON of the expected shape.
var ErrParse = errors.New("catalog: parse")

// Site identifies a sub-site and its relative link root.
type Site struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Category is an ordered group of items; item order is display order.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Items []Item `json:"items"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Item is a single link entry. Site, when set, restricts visibility to that site.
type Item struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Site      string `json:"site,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Playlist  string `json:"playlist,omitempty"`
	EmbedURL  string `json:"embedUrl,omitempty"`

	// Extra holds keys this package does not model (e.g. "embed") so a
	// load/save cycle never drops authored data.
	Extra map[string]json.RawMessage `json:"-"`
}

// Document is the on-disk and on-the-wire catalog: { sites, categories }.
type Document struct {
	Sites      []Site     `json:"sites"`
	Categories []Category `json:"categories"`

	Extra map[string]json.RawMessage `json:"-"`
}

// IsChannel reports whether the item is eligible for banner rendering.
func (it Item) IsChannel() bool { return it.Type == TypeChannel }

// VisibleOn reports whether the item is shown in the given site context.
// An item with an explicit site is hidden only when a site context is known
// and differs from it.
func (it Item) VisibleOn(site string) bool {
	return it.Site == "" || site == "" || it.Site == site
}

// DisplayTitle is the title, or the URL when the title is empty.
func (it Item) DisplayTitle() string {
	if it.Title != "" {
		return it.Title
	}
	return it.URL
}

// DisplayTitle is the site title, or its name.
func (s Site) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// DisplayTitle is the category title, or its id.
func (c Category) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}

// Clone returns a deep copy of the document's slices.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Extra: d.Extra}
	if d.Sites != nil {
		out.Sites = make([]Site, len(d.Sites))
		copy(out.Sites, d.Sites)
	}
	if d.Categories != nil {
		out.Categories = make([]Category, len(d.Categories))
		for i, c := range d.Categories {
			out.Categories[i] = c
			if c.Items != nil {
				out.Categories[i].Items = make([]Item, len(c.Items))
				copy(out.Categories[i].Items, c.Items)
			}
		}
	}
	return out
}

// Parse decodes a catalog document. Errors wrap ErrParse.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &d, nil
}

// LoadFile reads and parses the catalog at path. A missing file yields an
// error satisfying errors.Is(err, fs.ErrNotExist); bad JSON wraps ErrParse.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Marshal renders the document pretty-printed with two-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Save writes the document to path as pretty-printed JSON using a
// temp-file-then-rename strategy so readers never see a partially-written
// file. The existing file mode is kept; new files get 0644 since the catalog
// is served as a static asset.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("catalog save: marshal: %w", err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, ".categories-*.json.tmp")
	if err != nil {
		return fmt.Errorf("catalog save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("catalog save: write: %w", writeErr)
		}
		return fmt.Errorf("catalog save: close: %w", closeErr)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog save: rename: %w", err)
	}
	return nil
}

// ─── lossless JSON ───────────────────────────────────────────────────────────

var (
	siteKeys     = []string{"name", "title", "description", "path"}
	categoryKeys = []string{"id", "title", "items"}
	itemKeys     = []string{"title", "url", "type", "site", "thumbnail", "avatarUrl", "playlist", "embedUrl"}
	documentKeys = []string{"sites", "categories"}
)

// splitExtra returns the keys of the JSON object data not listed in known.
func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// joinExtra appends extra keys (sorted) to the JSON object base.
func joinExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	trimmed := bytes.TrimRight(base, " \n")
	buf.Write(trimmed[:len(trimmed)-1])
	empty := bytes.Equal(bytes.TrimSpace(trimmed), []byte("{}"))
	for i, k := range keys {
		if i > 0 || !empty {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Site) UnmarshalJSON(data []byte) error {
	type plain Site
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, siteKeys)
	if err != nil {
		return err
	}
	*s = Site(p)
	s.Extra = extra
	return nil
}

func (s Site) MarshalJSON() ([]byte, error) {
	type plain Site
	base, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	return joinExtra(base, s.Extra)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, itemKeys)
	if err != nil {
		return err
	}
	*it = Item(p)
	it.Extra = extra
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	type plain Item
	base, err := json.Marshal(plain(it))
	if err != nil {
		return nil, err
	}
	return joinExtra(base, it.Extra)
}

// categoryWire omits "items" when the category never had an items array, and
// writes [] (not null) for an empty one.
type categoryWire struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Items *[]Item `json:"items,omitempty"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var w categoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := splitExtra(data, categoryKeys)
	if err != nil {
		return err
	}
	*c = Category{ID: w.ID, Title: w.Title, Extra: extra}
	if w.Items != nil {
		c.Items = *w.Items
		if c.Items == nil {
			c.Items = []Item{}
		}
	}
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	w := categoryWire{ID: c.ID, Title: c.Title}
	if c.Items != nil {
		items := c.Items
		w.Items = &items
	}
	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return joinExtra(base, c.Extra)
}

type documentWire struct {
	Sites      *[]Site     `json:"sites,omitempty"`
	Categories *[]Category `json:"categories,omitempty"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := splitExtra(data, documentKeys)
	if err != nil {
		return err
	}
	*d = Document{Extra: extra}
	if w.Sites != nil {
		d.Sites = *w.Sites
		if d.Sites == nil {
			d.Sites = []Site{}
		}
	}
	if w.Categories != nil {
		d.Categories = *w.Categories
		if d.Categories == nil {
			d.Categories = []Category{}
		}
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	var w documentWire
	if d.Sites != nil {
		sites := d.Sites
		w.Sites = &sites
	}
	if d.Categories != nil {
		cats := d.Categories
		w.Categories = &cats
	}
	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return joinExtra(base, d.Extra)
}
