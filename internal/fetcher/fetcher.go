// Package fetcher handles web page fetching and text reduction.
package fetcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"ListingAgent/pkg/config"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher abstracts page fetching strategies. Fetch returns the visible text
// of the page flattened to a single line. Failures come back as a descriptive
// "Error: ..." text result rather than a Go error, so a caller that feeds the
// result to a language model never has to branch on it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static" or "dynamic".
	Type() string
}

// Chrome user agent for better compatibility with bot-protected sites.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var lineBreaks = regexp.MustCompile(`[\n\r]+`)

// New builds the fetcher selected by the scraper config.
func New(cfg config.ScraperConfig) (Fetcher, error) {
	switch cfg.Fetcher {
	case "", "static":
		return NewStatic(cfg), nil
	case "dynamic":
		return NewDynamic(cfg)
	default:
		return nil, fmt.Errorf("unknown fetcher kind %q", cfg.Fetcher)
	}
}

// FlattenHTML extracts the visible text of an HTML document and collapses
// every run of newline and carriage-return characters into a single space.
func FlattenHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	return lineBreaks.ReplaceAllString(doc.Text(), " "), nil
}

// writeTrace keeps an auditable copy of the last reduced page text.
func writeTrace(path, text string) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		log.Printf("WARN: Failed to write trace file %s: %v", path, err)
	}
}
