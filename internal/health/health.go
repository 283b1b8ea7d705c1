package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/httpclient"
)

// CheckCatalog fetches the catalog at catalogURL and verifies it parses and
// has at least one category. Returns nil if OK, error with message if not.
func CheckCatalog(ctx context.Context, catalogURL string) error {
	if catalogURL == "" {
		return fmt.Errorf("no catalog URL configured")
	}
	src := &catalog.HTTPSource{URL: catalogURL, Client: httpclient.WithTimeout(15 * time.Second)}
	data, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("catalog unreachable: %w", err)
	}
	doc, err := catalog.Parse(data)
	if err != nil {
		return err
	}
	if len(doc.Categories) == 0 {
		return fmt.Errorf("catalog has no categories")
	}
	return nil
}

// CheckEndpoints hits healthz, the catalog and the site index at baseURL and
// returns the first error or nil.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := httpclient.WithTimeout(5 * time.Second)
	baseURL = strings.TrimSuffix(baseURL, "/")
	for _, path := range []string{"/healthz", "/categories.json", "/"} {
		url := baseURL + path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
