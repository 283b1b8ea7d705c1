package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/snapetech/vidcat/internal/httpclient"
)

// maxDocumentBytes caps how much of a catalog response is read.
const maxDocumentBytes = 8 << 20

// HTTPSource fetches a JSON document (the catalog or the runtime config) over
// HTTP, bypassing caches on every call.
type HTTPSource struct {
	URL    string
	Client *http.Client // nil = httpclient.Default()
}

func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = httpclient.Default()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch %s: %w", h.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch %s: unexpected status %d", h.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("catalog fetch %s: read body: %w", h.URL, err)
	}
	return data, nil
}

// FileSource reads the catalog from a local file on every call.
type FileSource struct {
	Path string
}

func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Clean(f.Path))
}
