package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/snapetech/vidcat/internal/catalog"
	"github.com/snapetech/vidcat/internal/config"
	"github.com/snapetech/vidcat/internal/httpclient"
	"github.com/snapetech/vidcat/internal/ledger"
	"github.com/snapetech/vidcat/internal/merge"
	"github.com/snapetech/vidcat/internal/safeurl"
	"github.com/snapetech/vidcat/internal/scrape"
)

// resolve exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitNoFile      = 2
	exitUnsupported = 3
	exitFetch       = 4
	exitNoChannelID = 5
	exitParse       = 6
	exitNoUpdate    = 7
	exitWrite       = 8
)

// runResolve scrapes a channel page, derives its uploads playlist and merges
// it into the catalog file. It returns the process exit code. The catalog is
// read once and, only when something changed, written once.
func runResolve(ctx context.Context, cfg *config.Config, args []string) int {
	fset := flag.NewFlagSet("resolve", flag.ContinueOnError)
	channelURL := fset.String("channel", "", "Channel page URL, e.g. https://www.youtube.com/@name (required)")
	file := fset.String("file", "", "Catalog file to update, e.g. out/categories.json (required)")
	ledgerPath := fset.String("ledger", "", "Record the run in this sqlite ledger (default: VIDCAT_LEDGER)")
	site := fset.String("site", "", "Site name for an appended channel item")
	title := fset.String("title", "", "Title for an appended channel item (default: page title)")
	timeout := fset.Duration("timeout", 0, "Page fetch timeout (default: VIDCAT_FETCH_TIMEOUT)")
	if err := fset.Parse(args); err != nil {
		return exitUsage
	}
	if *channelURL == "" || *file == "" {
		log.Print("Usage: vidcat resolve --channel=<url> --file=<path/to/categories.json>")
		return exitUsage
	}

	run := ledger.Run{ChannelURL: *channelURL, File: *file}
	finish := func(code int, format string, a ...interface{}) int {
		run.ExitCode = code
		run.Detail = fmt.Sprintf(format, a...)
		log.Print(run.Detail)
		recordRun(ctx, firstNonEmpty(*ledgerPath, cfg.LedgerPath), run)
		return code
	}

	if _, err := os.Stat(*file); err != nil {
		return finish(exitNoFile, "Catalog file not found: %s", *file)
	}
	if !safeurl.IsHTTPOrHTTPS(*channelURL) {
		return finish(exitUnsupported, "Cannot fetch %q: only http(s) channel URLs are supported", *channelURL)
	}

	fetchTimeout := cfg.FetchTimeout
	if *timeout > 0 {
		fetchTimeout = *timeout
	}
	fetcher := &scrape.Fetcher{Client: httpclient.WithTimeout(fetchTimeout), UserAgent: cfg.UserAgent}
	log.Printf("Fetching %s ...", *channelURL)
	markup, err := fetcher.Fetch(ctx, *channelURL)
	if err != nil {
		return finish(exitFetch, "Fetch failed: %v", err)
	}

	channelID, ok := scrape.ExtractChannelID(markup)
	if !ok {
		return finish(exitNoChannelID, "Could not find a channel id in %s", *channelURL)
	}
	run.ChannelID = channelID
	run.PlaylistID = scrape.UploadsPlaylistID(channelID)
	log.Printf("Found channel id %s (uploads playlist %q)", channelID, run.PlaylistID)

	doc, err := catalog.LoadFile(*file)
	if err != nil {
		if errors.Is(err, catalog.ErrParse) {
			return finish(exitParse, "Failed to parse %s: %v", *file, err)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return finish(exitNoFile, "Catalog file not found: %s", *file)
		}
		return finish(exitNoFile, "Read %s: %v", *file, err)
	}

	itemTitle := *title
	if itemTitle == "" {
		itemTitle = scrape.PageTitle(markup)
	}
	res := merge.Apply(doc, merge.Input{
		ChannelURL: *channelURL,
		PlaylistID: run.PlaylistID,
		Title:      itemTitle,
		Site:       *site,
	})
	run.Action = string(res.Action)
	if !res.Changed {
		return finish(exitNoUpdate, "Nothing updated in %s", *file)
	}
	if err := doc.Save(*file); err != nil {
		return finish(exitWrite, "Write %s: %v", *file, err)
	}
	return finish(exitOK, "Updated %s: %s in category %q (item %d) with playlist %s",
		*file, res.Action, res.Category, res.Index, run.PlaylistID)
}

// recordRun appends run to the ledger at path. Ledger problems never change the exit code.
func recordRun(ctx context.Context, path string, run ledger.Run) {
	if path == "" {
		return
	}
	l, err := ledger.Open(path)
	if err != nil {
		log.Printf("Ledger disabled: %v", err)
		return
	}
	defer l.Close()
	if _, err := l.Record(ctx, run); err != nil {
		log.Printf("Ledger: %v", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
