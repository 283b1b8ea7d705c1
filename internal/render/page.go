package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Skeleton is the markup of a page carrying every widget the renderer knows.
// Pages may omit any widget; the renderer skips what is missing.
const Skeleton = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Catalog</title><link rel="stylesheet" href="/assets/css/site.css"></head>
<body>
<header>
  <div class="profile-pic"><img src="/assets/img/profile.jpg" alt="profile"></div>
  <nav id="site-nav"></nav>
</header>
<main>
  <div id="channel-banner-container"></div>
  <div id="channel-embed-container"></div>
  <section>
    <select id="category-select"></select>
    <button id="reload-categories" class="btn small">Reload</button>
    <div id="categories"></div>
  </section>
  <ul id="sites-list"></ul>
</main>
<div id="yt-modal" class="modal hidden" aria-hidden="true">
  <div class="modal-inner">
    <button id="modal-close" class="btn small">Close</button>
    <iframe id="yt-iframe" src="" allow="autoplay; encrypted-media" allowfullscreen></iframe>
  </div>
</div>
<script src="/assets/js/site.js"></script>
</body>
</html>
`

const playIcon = `<svg viewBox="0 0 24 24" fill="none" xmlns="http://www.w3.org/2000/svg"><path d="M8 5v14l11-7-11-7z" fill="currentColor"/></svg>`

// Page is a parsed HTML document the renderer mutates in place.
type Page struct {
	doc *goquery.Document
}

// ParsePage parses an HTML page.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("render: parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// NewSkeletonPage returns a page built from Skeleton.
func NewSkeletonPage() *Page {
	p, err := ParsePage(strings.NewReader(Skeleton))
	if err != nil {
		panic(err)
	}
	return p
}

// Find runs a CSS selector against the page.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// Render serializes the page.
func (p *Page) Render(w io.Writer) error {
	for _, n := range p.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// HTML returns the serialized page.
func (p *Page) HTML() string {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// byID returns the element with the given id; ok is false when the page lacks it.
func (p *Page) byID(id string) (*goquery.Selection, bool) {
	sel := p.doc.Find("#" + id).First()
	return sel, sel.Length() > 0
}

// element builds a detached element. attrs are key/value pairs.
func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// textElement builds an element holding a single text node.
func textElement(tag, text string, attrs ...string) *html.Node {
	n := element(tag, attrs...)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func appendAll(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

// setMessage replaces the element's content with plain text.
func setMessage(sel *goquery.Selection, text string) {
	sel.Empty()
	sel.SetText(text)
}

func fragment(markup string, context *html.Node) []*html.Node {
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil
	}
	return nodes
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
