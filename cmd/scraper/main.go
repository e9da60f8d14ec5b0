package main

import (
	"flag"
	"log"
	"strings"

	"ListingAgent/internal/app"
	"ListingAgent/internal/observability"
)

// go run cmd/scraper/main.go -task scrape -url "https://www.ikea.com/fi/en/cat/best-sellers/"
// go run cmd/scraper/main.go -task scrape-batch -urls "https://a.example/deals,https://b.example/deals"
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	task := flag.String("task", "scrape", "Task to run: scrape or scrape-batch")
	url := flag.String("url", "https://www.ikea.com/fi/en/cat/best-sellers/", "Seed URL of the listing page to extract")
	urls := flag.String("urls", "", "Comma-separated seed URLs for scrape-batch")
	flag.Parse()

	application := app.New()
	defer application.Repo.Close()

	// The counters are incremented during extraction, so this process has to
	// export them too.
	observability.Start(application.Config.MetricsPort)

	log.Printf("Running task: %s", *task)

	switch *task {
	case "scrape":
		if err := application.RunExtraction(*url); err != nil {
			log.Fatalf("Scraping error: %v", err)
		}

	case "scrape-batch":
		var seedURLs []string
		for _, u := range strings.Split(*urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				seedURLs = append(seedURLs, u)
			}
		}
		if len(seedURLs) == 0 {
			log.Fatalf("No seed URLs provided. Use -urls with a comma-separated list.")
		}
		application.RunBatchExtraction(seedURLs)

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}
