package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/snapetech/vidcat/internal/metrics"
)

var (
	// ErrUnavailable marks a catalog that could not be fetched or parsed.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrCategoryNotFound is returned for an unknown category id. It is distinct
	// from a known category with no visible items.
	ErrCategoryNotFound = errors.New("category not found")
)

// Source fetches the raw catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Selection is the visible item list for one category in one site context.
type Selection struct {
	Category Category
	Items    []Item
	Empty    bool
}

// Store holds the catalog for one page session. Load replaces it wholesale.
type Store struct {
	mu     sync.RWMutex
	src    Source
	doc    *Document
	loaded bool
}

// NewStore returns an empty store that loads from src.
func NewStore(src Source) *Store {
	return &Store{src: src, doc: &Document{}}
}

// Load fetches the document fresh and replaces the in-memory state. On fetch
// or parse failure the previous state is kept and the error wraps ErrUnavailable.
func (s *Store) Load(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		metrics.CatalogLoads.WithLabelValues("error").Inc()
		return err
	}
	metrics.CatalogLoads.WithLabelValues("ok").Inc()
	return nil
}

func (s *Store) load(ctx context.Context) error {
	if s.src == nil {
		return fmt.Errorf("%w: no source configured", ErrUnavailable)
	}
	data, err := s.src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.Replace(doc)
	return nil
}

// Replace swaps in doc as the current catalog.
func (s *Store) Replace(doc *Document) {
	if doc == nil {
		doc = &Document{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.loaded = true
}

// Loaded reports whether a catalog has been loaded successfully at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the current document for read-only use.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Sites returns a copy of the site list.
func (s *Store) Sites() []Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Site, len(s.doc.Sites))
	copy(out, s.doc.Sites)
	return out
}

// Categories returns a copy of the category list (items included).
func (s *Store) Categories() []Category {
	return s.Snapshot().Categories
}

// FirstCategoryID returns the id of the first category, if any.
func (s *Store) FirstCategoryID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.doc.Categories) == 0 {
		return "", false
	}
	return s.doc.Categories[0].ID, true
}

// HasCategory reports whether id names a category.
func (s *Store) HasCategory(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.find(id)
	return ok
}

func (s *Store) find(id string) (Category, bool) {
	for _, c := range s.doc.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// SelectCategory resolves the items of category id visible in the given site
// context. An unknown id returns ErrCategoryNotFound; a known category with
// nothing visible returns a Selection with Empty set.
func (s *Store) SelectCategory(id, site string) (Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.find(id)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, id)
	}
	items := make([]Item, 0, len(cat.Items))
	for _, it := range cat.Items {
		if it.VisibleOn(site) {
			items = append(items, it)
		}
	}
	return Selection{Category: cat, Items: items, Empty: len(items) == 0}, nil
}

// ChannelFor returns the first channel item visible in the site context,
// scanning categories and items in document order.
func (s *Store) ChannelFor(site string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.doc.Categories {
		for _, it := range c.Items {
			if it.IsChannel() && it.VisibleOn(site) {
				return it, true
			}
		}
	}
	return Item{}, false
}
