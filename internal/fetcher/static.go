package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"ListingAgent/pkg/config"
)

const defaultTimeout = 20 * time.Second

// StaticFetcher retrieves pages with a plain HTTP GET. It is the right choice
// for listing pages that render server-side.
type StaticFetcher struct {
	client    *http.Client
	traceFile string
}

// NewStatic creates a fetcher with the configured timeout.
func NewStatic(cfg config.ScraperConfig) *StaticFetcher {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &StaticFetcher{
		client:    &http.Client{Timeout: timeout},
		traceFile: cfg.TraceFile,
	}
}

func (f *StaticFetcher) Fetch(ctx context.Context, url string) string {
	log.Printf("Fetching HTML from URL: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("Unexpected error fetching HTML: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("Unexpected error fetching HTML: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("Failed to fetch HTML from %s. HTTP status: %d", url, resp.StatusCode)
		return fmt.Sprintf("Error: Unable to fetch content from %s", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Unexpected error reading response body: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}

	text, err := FlattenHTML(string(body))
	if err != nil {
		log.Printf("Unexpected error parsing HTML: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}

	writeTrace(f.traceFile, text)
	return text
}

func (f *StaticFetcher) Close() error { return nil }

func (f *StaticFetcher) Type() string { return "static" }
