// Package site serves the static pages, the catalog and the optional runtime
// config over HTTP.
package site

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/metrics"
)

// CatalogPath is where pages fetch the catalog.
const CatalogPath = "/categories.json"

// Server serves one site tree.
type Server struct {
	Addr        string // default :8080
	SiteDir     string // static files; "" = no static files
	CatalogFile string // categories.json on disk, read on every request
	APIKey      string // published at /assets/config.json when set
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(CatalogPath, metrics.Wrap("catalog", s.serveCatalog()))
	mux.Handle(config.RuntimePath, metrics.Wrap("runtime_config", s.serveRuntime()))
	mux.Handle("/healthz", metrics.Wrap("healthz", s.serveHealth()))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", metrics.Wrap("static", s.serveStatic()))
	return logRequests(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Site listening on %s (dir %q, catalog %q)", addr, s.SiteDir, s.CatalogFile)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Print("Shutting down site ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Site shutdown: %v", err)
		}
		<-serverErr
		return nil
	}
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// writeCompressed writes body with br or gzip when the client accepts it.
func writeCompressed(w http.ResponseWriter, r *http.Request, body []byte) {
	cw := brotli.HTTPCompressor(w, r)
	if _, err := cw.Write(body); err != nil {
		log.Printf("http: write %s: %v", r.URL.Path, err)
	}
	if err := cw.Close(); err != nil {
		log.Printf("http: close %s: %v", r.URL.Path, err)
	}
}

func (s *Server) serveCatalog() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, err := os.ReadFile(filepath.Clean(s.CatalogFile))
		if err != nil {
			log.Printf("http: read catalog %s: %v", s.CatalogFile, err)
			http.Error(w, "catalog unavailable", http.StatusNotFound)
			return
		}
		noStore(w)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		writeCompressed(w, r, data)
	})
}

func (s *Server) serveRuntime() http.Handler {
	static := s.serveStatic()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey == "" {
			static.ServeHTTP(w, r)
			return
		}
		body, _ := json.Marshal(config.Runtime{YTAPIKey: s.APIKey})
		noStore(w)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

// serveHealth returns 200 {"status":"ok",...} while the catalog on disk parses,
// 503 {"status":"unavailable"} otherwise.
func (s *Server) serveHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		doc, err := catalog.LoadFile(s.CatalogFile)
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			body, _ := json.Marshal(map[string]string{"status": "unavailable", "error": err.Error()})
			_, _ = w.Write(body)
			return
		}
		items := 0
		for _, c := range doc.Categories {
			items += len(c.Items)
		}
		body, _ := json.Marshal(map[string]interface{}{
			"status":     "ok",
			"sites":      len(doc.Sites),
			"categories": len(doc.Categories),
			"items":      items,
		})
		_, _ = w.Write(body)
	})
}

func (s *Server) serveStatic() http.Handler {
	if s.SiteDir == "" {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(s.SiteDir))
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// ReadFrom keeps http.FileServer's sendfile path working through the wrapper.
func (w *loggingResponseWriter) ReadFrom(r io.Reader) (int64, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := io.Copy(w.ResponseWriter, r)
	w.bytes += int(n)
	return n, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		status := lw.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf(
			"http: %s %s status=%d bytes=%d dur=%s remote=%s",
			r.Method, r.URL.Path, status, lw.bytes, time.Since(start).Round(time.Millisecond), r.RemoteAddr,
		)
	})
}
