package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/snapetech/vidcat/internal/config"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"@GamingBricks-67", "@GamingBricks-67"},
		{"https://www.youtube.com/@GamingBricks-67", "@GamingBricks-67"},
		{"https://www.youtube.com/channel/UCabc123/videos", "UCabc123"},
		{"https://youtube.com/c/SomeName", "/c/SomeName"},
		{"https://www.youtube.com/results?search_query=x", "/results ?search_query=x"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"progamer channel", "progamer channel"},
		{"https://example.com/a", "https://example.com/a"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseQuery(tt.in); got != tt.want {
			t.Errorf("ParseQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_noKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()
	r := &Resolver{Base: srv.URL, Client: srv.Client()}
	for _, q := range []string{"@x", "https://www.youtube.com/@x", ""} {
		if got, ok := r.Resolve(context.Background(), q); ok {
			t.Errorf("Resolve(%q) without key = %+v, want no result", q, got)
		}
	}
	if calls != 0 {
		t.Errorf("made %d API calls without a key", calls)
	}
	var nilResolver *Resolver
	if _, ok := nilResolver.Resolve(context.Background(), "@x"); ok {
		t.Error("nil resolver should return no result")
	}
}

func apiServer(t *testing.T, search, channels string, searchStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("type") != "channel" || q.Get("part") != "snippet" {
			t.Errorf("search query = %v", q)
		}
		w.WriteHeader(searchStatus)
		w.Write([]byte(search))
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("id") != "UCabc" || q.Get("part") != "contentDetails" {
			t.Errorf("channels query = %v", q)
		}
		if channels == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(channels))
	})
	return httptest.NewServer(mux)
}

func TestResolve_full(t *testing.T) {
	srv := apiServer(t,
		`{"items":[{"id":{"channelId":"UCabc"},"snippet":{"title":"Bricks","description":"Builds","thumbnails":{"default":{"url":"d.jpg"},"medium":{"url":"m.jpg"}}}}]}`,
		`{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUabc"}}}]}`,
		http.StatusOK)
	defer srv.Close()
	r := &Resolver{APIKey: "k", Base: srv.URL, Client: srv.Client(), Profile: config.DefaultProfile()}
	got, ok := r.Resolve(context.Background(), "https://www.youtube.com/@GamingBricks-67")
	if !ok {
		t.Fatal("expected result")
	}
	want := Resolved{
		Type:              "channel",
		URL:               "https://www.youtube.com/channel/UCabc",
		AvatarURL:         "m.jpg",
		Title:             "Bricks",
		Description:       "Builds",
		UploadsPlaylistID: "UUabc",
	}
	if got != want {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}

func TestResolve_defaultsAndDetailFailure(t *testing.T) {
	srv := apiServer(t, `{"items":[{"id":{"channelId":"UCabc"},"snippet":{}}]}`, "", http.StatusOK)
	defer srv.Close()
	p := config.DefaultProfile()
	r := &Resolver{APIKey: "k", Base: srv.URL + "/", Client: srv.Client(), Profile: p}
	got, ok := r.Resolve(context.Background(), "@GamingBricks-67")
	if !ok {
		t.Fatal("expected result despite contentDetails failure")
	}
	if got.UploadsPlaylistID != "" {
		t.Errorf("UploadsPlaylistID = %q, want empty", got.UploadsPlaylistID)
	}
	if got.AvatarURL != p.ProfileAvatar || got.Title != p.ChannelHandle || got.Description != "Channel" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestResolve_failuresAreNoResult(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"quota", `{"error":{}}`, http.StatusForbidden},
		{"empty", `{"items":[]}`, http.StatusOK},
		{"garbage", `<html>`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apiServer(t, tt.body, "", tt.status)
			defer srv.Close()
			r := &Resolver{APIKey: "k", Base: srv.URL, Client: srv.Client()}
			if got, ok := r.Resolve(context.Background(), "@x"); ok {
				t.Errorf("Resolve = %+v, want no result", got)
			}
		})
	}
}

func TestResolve_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	r := &Resolver{APIKey: "k", Base: base}
	if _, ok := r.Resolve(context.Background(), "@x"); ok {
		t.Error("expected no result for unreachable API")
	}
}

func TestFallback(t *testing.T) {
	got, ok := Fallback(config.DefaultProfile())
	if !ok {
		t.Fatal("default profile should yield a fallback")
	}
	if got.URL != "https://www.youtube.com/@GamingBricks-67" || got.Title != "@GamingBricks-67" ||
		got.AvatarURL != "/assets/img/profile.jpg" || got.Description != "Official channel" {
		t.Errorf("Fallback = %+v", got)
	}
	if _, ok := Fallback(config.Profile{}); ok {
		t.Error("empty profile should yield no fallback")
	}
	got, _ = Fallback(config.Profile{DefaultChannelURL: "https://www.youtube.com/@x"})
	if got.Title != "Channel" {
		t.Errorf("Title = %q, want Channel", got.Title)
	}
}
