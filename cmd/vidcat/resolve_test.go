package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/ledger"
)

const page = `<html><head><meta property="og:title" content="Gaming Bricks"></head>
<body><script>{"externalId":"UCbricks000","channelId":"UCbricks000"}</script></body></html>`

func testConfig() *config.Config {
	return &config.Config{FetchTimeout: 5 * time.Second}
}

func channelServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolve_exitCodes(t *testing.T) {
	ok := channelServer(t, http.StatusOK, page)
	broken := channelServer(t, http.StatusInternalServerError, "oops")
	noID := channelServer(t, http.StatusOK, "<html>no metadata</html>")
	file := writeCatalog(t, `{"categories":[]}`)
	missing := filepath.Join(t.TempDir(), "missing.json")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, exitUsage},
		{"no file flag", []string{"--channel=" + ok.URL}, exitUsage},
		{"unknown flag", []string{"--bogus"}, exitUsage},
		{"missing file", []string{"--channel=" + ok.URL, "--file=" + missing}, exitNoFile},
		{"non-http channel", []string{"--channel=file:///etc/passwd", "--file=" + file}, exitUnsupported},
		{"fetch failure", []string{"--channel=" + broken.URL, "--file=" + file}, exitFetch},
		{"no channel id", []string{"--channel=" + noID.URL, "--file=" + file}, exitNoChannelID},
	}
	for _, tt := range tests {
		if got := runResolve(context.Background(), testConfig(), tt.args); got != tt.want {
			t.Errorf("%s: exit = %d, want %d", tt.name, got, tt.want)
		}
	}
	if got := readFile(t, file); got != `{"categories":[]}` {
		t.Errorf("failure paths modified the file: %s", got)
	}
}

func TestResolve_parseFailureLeavesFile(t *testing.T) {
	srv := channelServer(t, http.StatusOK, page)
	bad := `{"categories": [ oops`
	file := writeCatalog(t, bad)
	if got := runResolve(context.Background(), testConfig(), []string{"--channel=" + srv.URL, "--file=" + file}); got != exitParse {
		t.Fatalf("exit = %d, want %d", got, exitParse)
	}
	if got := readFile(t, file); got != bad {
		t.Errorf("file modified: %q", got)
	}
}

func TestResolve_urlMatchIdempotent(t *testing.T) {
	srv := channelServer(t, http.StatusOK, page)
	file := writeCatalog(t, `{"sites":[],"categories":[{"id":"c","items":[{"title":"Mine","url":"`+srv.URL+`/","type":"channel"}]}]}`)
	args := []string{"--channel=" + srv.URL, "--file=" + file}
	if got := runResolve(context.Background(), testConfig(), args); got != exitOK {
		t.Fatalf("first run exit = %d", got)
	}
	first := readFile(t, file)
	if got := runResolve(context.Background(), testConfig(), args); got != exitOK {
		t.Fatalf("second run exit = %d", got)
	}
	if second := readFile(t, file); second != first {
		t.Errorf("second run changed the file:\n%s\n---\n%s", first, second)
	}
	doc, err := catalog.LoadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	it := doc.Categories[0].Items[0]
	if it.Playlist != "UUbricks000" || !strings.Contains(it.EmbedURL, "UUbricks000") {
		t.Errorf("item = %+v", it)
	}
	if len(doc.Categories[0].Items) != 1 {
		t.Errorf("items = %d, want 1", len(doc.Categories[0].Items))
	}
	if !strings.Contains(first, "\n  \"categories\": [") {
		t.Errorf("file not pretty-printed:\n%s", first)
	}
}

func TestResolve_appendAndLedger(t *testing.T) {
	srv := channelServer(t, http.StatusOK, page)
	file := writeCatalog(t, `{"categories":[]}`)
	ledgerPath := filepath.Join(t.TempDir(), "ledger.db")
	args := []string{"--channel=" + srv.URL, "--file=" + file, "--site=haris", "--ledger=" + ledgerPath}
	if got := runResolve(context.Background(), testConfig(), args); got != exitOK {
		t.Fatalf("exit = %d", got)
	}
	doc, err := catalog.LoadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Categories) != 1 || doc.Categories[0].ID != "channels" || len(doc.Categories[0].Items) != 1 {
		t.Fatalf("categories = %+v", doc.Categories)
	}
	it := doc.Categories[0].Items[0]
	if it.Title != "Gaming Bricks" || it.Site != "haris" || !it.IsChannel() || it.Playlist != "UUbricks000" {
		t.Errorf("appended = %+v", it)
	}

	l, err := ledger.Open(ledgerPath)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	runs, err := l.Recent(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ExitCode != exitOK || runs[0].Action != "appended" || runs[0].ChannelID != "UCbricks000" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestRenderSources(t *testing.T) {
	src, rt, err := renderSources("http://localhost:8080/categories.json", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if hs, ok := src.(*catalog.HTTPSource); !ok || hs.URL != "http://localhost:8080/categories.json" {
		t.Errorf("catalog source = %#v", src)
	}
	if hs, ok := rt.(*catalog.HTTPSource); !ok || hs.URL != "http://localhost:8080/assets/config.json" {
		t.Errorf("runtime source = %#v", rt)
	}
	src, rt, err = renderSources("out/categories.json", testConfig())
	if err != nil || rt != nil {
		t.Fatalf("file: rt = %v, err = %v", rt, err)
	}
	if _, ok := src.(*catalog.FileSource); !ok {
		t.Errorf("catalog source = %#v", src)
	}
	if _, _, err := renderSources("", testConfig()); err == nil {
		t.Error("expected error for empty location")
	}
}
