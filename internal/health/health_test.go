package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckCatalog_ok(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sites":[],"categories":[{"id":"music","items":[]}]}`))
	}))
	defer srv.Close()
	if err := CheckCatalog(context.Background(), srv.URL); err != nil {
		t.Fatalf("CheckCatalog: %v", err)
	}
}

func TestCheckCatalog_failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad status", http.StatusUnauthorized, ``},
		{"invalid json", http.StatusOK, `{`},
		{"no categories", http.StatusOK, `{"categories":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			if err := CheckCatalog(context.Background(), srv.URL); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCheckCatalog_emptyURL(t *testing.T) {
	if err := CheckCatalog(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestCheckEndpoints_ok(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mux.HandleFunc("/categories.json", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	srv := httptest.NewServer(mux)
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL+"/"); err != nil {
		t.Fatalf("CheckEndpoints: %v", err)
	}
}

func TestCheckEndpoints_missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
