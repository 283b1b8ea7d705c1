package merge

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapetech/vidcat/internal/catalog"
)

const channelURL = "https://www.youtube.com/@progamer-sub"

func parse(t *testing.T, s string) *catalog.Document {
	t.Helper()
	doc, err := catalog.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestApply_urlMatch(t *testing.T) {
	doc := parse(t, `{"categories":[{"id":"music","items":[
		{"title":"Video","url":"https://www.youtube.com/watch?v=abc"},
		{"title":"Someone","url":"https://www.youtube.com/@progamer-sub/","type":"channel"}
	]}]}`)
	res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz"})
	if res.Action != ActionURLMatch || !res.Changed || res.Category != "music" || res.Index != 1 {
		t.Fatalf("Apply = %+v", res)
	}
	it := doc.Categories[0].Items[1]
	if it.Playlist != "UUxyz" {
		t.Errorf("Playlist = %q", it.Playlist)
	}
	if it.EmbedURL != "https://www.youtube.com/embed?listType=playlist&list=UUxyz" {
		t.Errorf("EmbedURL = %q", it.EmbedURL)
	}
	if len(doc.Categories[0].Items) != 2 {
		t.Errorf("item count changed: %d", len(doc.Categories[0].Items))
	}
}

func TestApply_urlMatchBeatsEarlierTitleMatch(t *testing.T) {
	doc := parse(t, `{"categories":[
		{"id":"a","items":[{"title":"ProGamer old","url":"https://www.youtube.com/@old","type":"channel"}]},
		{"id":"b","items":[{"title":"New","url":"https://www.youtube.com/@progamer-sub?si=1","type":"channel"}]}
	]}`)
	res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz"})
	if res.Action != ActionURLMatch || res.Category != "b" {
		t.Fatalf("Apply = %+v, want url match in b", res)
	}
	if doc.Categories[0].Items[0].Playlist != "" {
		t.Error("title-matching item should be untouched")
	}
}

func TestApply_titleMatch(t *testing.T) {
	doc := parse(t, `{"categories":[{"id":"c","items":[
		{"title":"PROGAMER video","url":"https://www.youtube.com/watch?v=1"},
		{"title":"The ProGamer","url":"https://www.youtube.com/@other","type":"channel"},
		{"title":"progamer two","url":"https://www.youtube.com/@two","type":"channel"}
	]}]}`)
	res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz"})
	if res.Action != ActionTitleMatch || res.Index != 1 {
		t.Fatalf("Apply = %+v, want title match at 1", res)
	}
	if doc.Categories[0].Items[2].Playlist != "" || doc.Categories[0].Items[0].Playlist != "" {
		t.Error("only the first matching channel item should be touched")
	}
}

func TestApply_appendToFirstCategory(t *testing.T) {
	doc := parse(t, `{"sites":[],"categories":[{"id":"music","items":[{"title":"x","url":"https://example.com"}]},{"id":"other","items":[]}]}`)
	res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz", Site: "haris"})
	if res.Action != ActionAppended || res.Category != "music" || res.Index != 1 {
		t.Fatalf("Apply = %+v", res)
	}
	it := doc.Categories[0].Items[1]
	if it.Title != DefaultTitle || it.URL != channelURL || !it.IsChannel() || it.Site != "haris" {
		t.Errorf("appended = %+v", it)
	}
	if string(it.Extra["embed"]) != "false" {
		t.Errorf("embed = %s, want false", it.Extra["embed"])
	}
	if len(doc.Categories[1].Items) != 0 {
		t.Error("second category should be untouched")
	}
}

func TestApply_createsChannelsCategory(t *testing.T) {
	for _, body := range []string{`{}`, `{"categories":[]}`} {
		doc := parse(t, body)
		res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz", Title: "Gaming Bricks"})
		if res.Action != ActionAppended || res.Category != "channels" {
			t.Fatalf("%s: Apply = %+v", body, res)
		}
		if len(doc.Categories) != 1 || doc.Categories[0].Title != "Channels" || len(doc.Categories[0].Items) != 1 {
			t.Fatalf("%s: categories = %+v", body, doc.Categories)
		}
		if doc.Categories[0].Items[0].Title != "Gaming Bricks" {
			t.Errorf("title = %q", doc.Categories[0].Items[0].Title)
		}
	}
}

func TestApply_categoryWithoutItems(t *testing.T) {
	doc := parse(t, `{"categories":[{"id":"bare"}]}`)
	res := Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz"})
	if res.Action != ActionAppended || len(doc.Categories[0].Items) != 1 {
		t.Fatalf("Apply = %+v, items = %v", res, doc.Categories[0].Items)
	}
}

func TestApply_noPlaylist(t *testing.T) {
	doc := parse(t, `{"categories":[]}`)
	res := Apply(doc, Input{ChannelURL: channelURL})
	if res.Changed || res.Action != ActionNone {
		t.Fatalf("Apply = %+v, want no change", res)
	}
	if len(doc.Categories) != 0 {
		t.Error("document should be untouched")
	}
	if res := Apply(nil, Input{PlaylistID: "UU"}); res.Changed {
		t.Error("nil document should not change")
	}
}

func TestApply_idempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	orig := `{"categories":[{"id":"c","items":[{"title":"Mine","url":"` + channelURL + `","type":"channel","embed":false}]}]}`
	if err := os.WriteFile(path, []byte(orig), 0644); err != nil {
		t.Fatal(err)
	}
	run := func() []byte {
		doc, err := catalog.LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		Apply(doc, Input{ChannelURL: channelURL, PlaylistID: "UUxyz"})
		if err := doc.Save(path); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	first := run()
	second := run()
	if !bytes.Equal(first, second) {
		t.Errorf("second run changed the file:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(string(first), `"embed": false`) {
		t.Errorf("unknown key dropped:\n%s", first)
	}
}
