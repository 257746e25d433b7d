package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/harborline/product-import/internal/fetcher"
	"github.com/harborline/product-import/internal/scraper"
)

// Scrapes a single product page and prints the extracted record as JSON.
// Useful for checking what an import would pick up before running one.
func main() {
	var (
		pageURL  = flag.String("url", "", "product page URL to scrape")
		pageFile = flag.String("file", "", "local HTML file to scrape instead of fetching")
		timeout  = flag.Duration("timeout", 30*time.Second, "fetch timeout")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *pageURL == "" {
		fmt.Fprintln(os.Stderr, "usage: import -url <product-page-url> [-file <saved-page.html>]")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var html string
	if *pageFile != "" {
		data, err := os.ReadFile(*pageFile)
		if err != nil {
			logger.Error("read failed", "file", *pageFile, "error", err)
			os.Exit(1)
		}
		html = string(data)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout+10*time.Second)
		defer cancel()

		f := fetcher.New(fetcher.Options{Timeout: *timeout}, logger)
		fetched, err := f.FetchPage(ctx, *pageURL)
		if err != nil {
			logger.Error("fetch failed", "url", *pageURL, "error", err)
			os.Exit(1)
		}
		html = fetched
	}

	record, err := scraper.New(logger).Scrape(html, *pageURL)
	if err != nil {
		logger.Error("scrape failed", "url", *pageURL, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		logger.Error("failed to encode record", "error", err)
		os.Exit(1)
	}
}
