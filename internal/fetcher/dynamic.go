package fetcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"ListingAgent/pkg/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// DynamicFetcher drives a headless browser for listing pages that only render
// their products through client-side scripts.
type DynamicFetcher struct {
	browser   *rod.Browser
	timeout   time.Duration
	traceFile string
}

// NewDynamic launches a browser and connects to it. Callers must Close the
// fetcher to shut the browser down.
func NewDynamic(cfg config.ScraperConfig) (*DynamicFetcher, error) {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	u, err := launcher.New().Headless(cfg.Headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &DynamicFetcher{
		browser:   browser,
		timeout:   timeout,
		traceFile: cfg.TraceFile,
	}, nil
}

func (f *DynamicFetcher) Fetch(ctx context.Context, url string) string {
	log.Printf("Fetching rendered HTML from URL: %s", url)

	page, err := stealth.Page(f.browser)
	if err != nil {
		log.Printf("Unexpected error creating page: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)
	if err := page.Navigate(url); err != nil {
		log.Printf("Failed to fetch HTML from %s: %v", url, err)
		return fmt.Sprintf("Error: Unable to fetch content from %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		log.Printf("Failed to wait for load of %s: %v", url, err)
		return fmt.Sprintf("Error: Unable to fetch content from %s", url)
	}

	html, err := page.HTML()
	if err != nil {
		log.Printf("Unexpected error reading page HTML: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}

	text, err := FlattenHTML(html)
	if err != nil {
		log.Printf("Unexpected error parsing HTML: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}

	writeTrace(f.traceFile, text)
	return text
}

func (f *DynamicFetcher) Close() error {
	return f.browser.Close()
}

func (f *DynamicFetcher) Type() string { return "dynamic" }
