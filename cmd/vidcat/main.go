// Command vidcat: maintain and preview a per-site catalog of video and channel links.
//
//	resolve  Scrape a channel page, derive its uploads playlist, merge it into categories.json
//	serve    Serve the site tree, categories.json, runtime config, /healthz and /metrics
//	render   Load the catalog into a page headlessly and write the rendered HTML
//	check    Check a running site's endpoints and catalog
//	history  List recent resolve runs from the ledger
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/channel"
	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/health"
	"github.com/snapetech/vidcat/internal/httpclient"
	"github.com/snapetech/vidcat/internal/ledger"
	"github.com/snapetech/vidcat/internal/render"
	"github.com/snapetech/vidcat/internal/safeurl"
	"github.com/snapetech/vidcat/internal/site"
)

func main() {
	log.SetPrefix("[vidcat] ")
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Printf("Load .env: %v", err)
	}

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveAddr := serveCmd.String("addr", "", "Listen address (default: VIDCAT_ADDR or :8080)")
	serveDir := serveCmd.String("dir", "", "Site directory (default: VIDCAT_SITE_DIR)")
	serveCatalog := serveCmd.String("catalog", "", "Catalog path (default: VIDCAT_CATALOG)")
	serveAPIKey := serveCmd.String("api-key", "", "Metadata API key published at /assets/config.json (default: VIDCAT_YT_API_KEY)")

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	renderCatalog := renderCmd.String("catalog", "", "Catalog file or http(s) URL (default: VIDCAT_CATALOG)")
	renderPage := renderCmd.String("page", "", "HTML page to render into (default: built-in skeleton)")
	renderPath := renderCmd.String("path", "/index.html", "Page path; /sites/<name>/... selects the site context")
	renderFragment := renderCmd.String("fragment", "", "URL fragment (category id)")
	renderOpen := renderCmd.String("open", "", "Activate this item URL after loading (modal or external open)")
	renderOut := renderCmd.String("out", "", "Write HTML here (default: stdout)")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkURL := checkCmd.String("url", "http://localhost:8080", "Base URL of a running site")
	checkTimeout := checkCmd.Duration("timeout", 20*time.Second, "Overall timeout")

	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	historyLedger := historyCmd.String("ledger", "", "Ledger path (default: VIDCAT_LEDGER)")
	historyLimit := historyCmd.Int("limit", 20, "Number of runs to show")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <resolve|serve|render|check|history> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  resolve  --channel=<url> --file=<categories.json>: merge a channel's uploads playlist into the catalog\n")
		fmt.Fprintf(os.Stderr, "  serve    Serve the site, catalog and metrics\n")
		fmt.Fprintf(os.Stderr, "  render   Render the catalog into a page headlessly\n")
		fmt.Fprintf(os.Stderr, "  check    Check a running site\n")
		fmt.Fprintf(os.Stderr, "  history  List recent resolve runs\n")
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "resolve":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := runResolve(ctx, cfg, os.Args[2:])
		stop()
		os.Exit(code)

	case "serve":
		_ = serveCmd.Parse(os.Args[2:])
		srv := &site.Server{
			Addr:        firstNonEmpty(*serveAddr, cfg.Addr),
			SiteDir:     firstNonEmpty(*serveDir, cfg.SiteDir),
			CatalogFile: firstNonEmpty(*serveCatalog, cfg.CatalogPath),
			APIKey:      firstNonEmpty(*serveAPIKey, cfg.YTAPIKey),
		}
		if _, err := catalog.LoadFile(srv.CatalogFile); err != nil {
			log.Printf("Catalog %s not loadable yet: %v (pages will show the unavailable message)", srv.CatalogFile, err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Run(ctx); err != nil {
			log.Printf("Serve failed: %v", err)
			os.Exit(1)
		}

	case "render":
		_ = renderCmd.Parse(os.Args[2:])
		profile, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			log.Printf("Profile: %v; using defaults", err)
		}
		page := render.NewSkeletonPage()
		if *renderPage != "" {
			f, err := os.Open(filepath.Clean(*renderPage))
			if err != nil {
				log.Printf("Open page: %v", err)
				os.Exit(1)
			}
			page, err = render.ParsePage(f)
			f.Close()
			if err != nil {
				log.Printf("%v", err)
				os.Exit(1)
			}
		}
		src, runtime, err := renderSources(firstNonEmpty(*renderCatalog, cfg.CatalogPath), cfg)
		if err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		apiClient := httpclient.RateLimited(httpclient.WithTimeout(cfg.FetchTimeout), cfg.APIRPS, 1)
		sess := render.NewSession(page, render.Options{
			Catalog:  src,
			Runtime:  runtime,
			Resolver: &channel.Resolver{APIKey: cfg.YTAPIKey, Base: cfg.YTAPIBase, Client: apiClient},
			Profile:  profile,
			Opener:   render.OpenerFunc(func(u string) { log.Printf("Open in new tab: %s", u) }),
			Path:     *renderPath,
			Fragment: *renderFragment,
		})
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := sess.Mount(ctx); err != nil {
			log.Printf("Load failed: %v", err)
		}
		ch, banner, ok := sess.Channel()
		log.Printf("State=%s site=%q category=%q banner=%s", sess.State(), sess.Site(), sess.Current(), banner)
		if ok {
			log.Printf("Channel: %s (%s) uploads=%q", ch.Title, ch.URL, ch.UploadsPlaylistID)
		}
		if *renderOpen != "" {
			log.Printf("Open %s: %s", *renderOpen, sess.OpenItem(*renderOpen))
		}
		var w io.Writer = os.Stdout
		if *renderOut != "" {
			f, err := os.Create(filepath.Clean(*renderOut))
			if err != nil {
				log.Printf("Create %s: %v", *renderOut, err)
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err := sess.Page().Render(w); err != nil {
			log.Printf("Render: %v", err)
			os.Exit(1)
		}
		if sess.State() == render.StateUnavailable {
			stop()
			os.Exit(1)
		}

	case "check":
		_ = checkCmd.Parse(os.Args[2:])
		ctx, cancel := context.WithTimeout(context.Background(), *checkTimeout)
		defer cancel()
		catalogURL, err := safeurl.Resolve(*checkURL, site.CatalogPath)
		if err != nil {
			log.Printf("Check: %v", err)
			os.Exit(1)
		}
		if err := health.CheckEndpoints(ctx, *checkURL); err != nil {
			log.Printf("Endpoints: %v", err)
			os.Exit(1)
		}
		if err := health.CheckCatalog(ctx, catalogURL); err != nil {
			log.Printf("Catalog: %v", err)
			os.Exit(1)
		}
		log.Printf("Site %s OK", *checkURL)

	case "history":
		_ = historyCmd.Parse(os.Args[2:])
		path := firstNonEmpty(*historyLedger, cfg.LedgerPath)
		if path == "" {
			log.Print("Set -ledger=/path/to/ledger.db or VIDCAT_LEDGER")
			os.Exit(1)
		}
		l, err := ledger.Open(path)
		if err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		defer l.Close()
		runs, err := l.Recent(context.Background(), *historyLimit)
		if err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		for _, r := range runs {
			fmt.Printf("%s  exit=%d  %-11s  %s  %s  %s\n",
				r.At.Local().Format(time.DateTime), r.ExitCode, r.Action, r.PlaylistID, r.ChannelURL, r.File)
		}
		if len(runs) == 0 {
			log.Printf("No runs recorded in %s", path)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}

// renderSources picks the catalog source for location (file path or http(s)
// URL). Over HTTP the runtime config is read from the same origin.
func renderSources(location string, cfg *config.Config) (catalog.Source, catalog.Source, error) {
	if safeurl.IsHTTPOrHTTPS(location) {
		client := httpclient.WithTimeout(cfg.FetchTimeout)
		runtimeURL, err := safeurl.Resolve(location, config.RuntimePath)
		if err != nil {
			return nil, nil, err
		}
		return &catalog.HTTPSource{URL: location, Client: client},
			&catalog.HTTPSource{URL: runtimeURL, Client: client}, nil
	}
	if location == "" {
		return nil, nil, fmt.Errorf("no catalog: set -catalog or VIDCAT_CATALOG")
	}
	return &catalog.FileSource{Path: location}, nil, nil
}
