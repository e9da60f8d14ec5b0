package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"ListingAgent/internal/agent"
	"ListingAgent/internal/database"
	"ListingAgent/internal/fetcher"
	"ListingAgent/internal/models"
	"ListingAgent/internal/observability"
	"ListingAgent/internal/writer"
	"ListingAgent/pkg/config"
	"ListingAgent/utils"

	"github.com/google/uuid"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config *config.Config
	Repo   *database.DBRepository
}

// New creates a new application instance with all initial settings.
func New() *App {
	cfg := config.LoadConfig("config.yml")
	repo := database.InitDB("listings.db")
	return &App{
		Config: cfg,
		Repo:   repo,
	}
}

// RunExtraction executes one fetch -> extract -> validate -> persist pipeline
// for a single seed URL.
func (a *App) RunExtraction(seedURL string) error {
	log.Println("--- Starting Listing Extraction Task ---")

	f, err := fetcher.New(a.Config.Scraper)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer f.Close()
	log.Printf("Using %s fetcher", f.Type())

	extractionAgent, err := agent.New(a.Config.Extractor, f)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	result, report, err := extractionAgent.Extract(context.Background(), seedURL)
	if err != nil {
		observability.ExtractionsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("extraction failed for %s: %w", seedURL, err)
	}

	log.Printf("Input Tokens: %d, Output Tokens: %d, Total Tokens: %d",
		report.Usage.PromptTokens, report.Usage.CompletionTokens, report.Usage.TotalTokens)
	observability.TokensTotal.WithLabelValues("input").Add(float64(report.Usage.PromptTokens))
	observability.TokensTotal.WithLabelValues("output").Add(float64(report.Usage.CompletionTokens))

	csvPath, err := writer.Write(".", result.Dataset)
	if err != nil {
		// A write failure is fatal for the run; nothing is retried here.
		observability.ExtractionsTotal.WithLabelValues("failed").Inc()
		return err
	}
	log.Printf("Data saved to %s", csvPath)

	run := models.Run{
		ID:           uuid.New().String(),
		SeedURL:      seedURL,
		Provider:     report.Provider,
		Model:        report.Model,
		Status:       "completed",
		InputTokens:  report.Usage.PromptTokens,
		OutputTokens: report.Usage.CompletionTokens,
		TotalTokens:  report.Usage.TotalTokens,
		CSVPath:      csvPath,
		CreatedAt:    time.Now(),
	}
	if err := a.Repo.SaveRun(run, result.Dataset); err != nil {
		// History is best effort; the CSV already exists.
		log.Printf("WARN: Failed to record run %s: %v", run.ID, err)
	}

	observability.ExtractionsTotal.WithLabelValues("completed").Inc()
	log.Println("--- Listing Extraction Task Finished ---")
	return nil
}

// RunBatchExtraction runs the same pipeline for several seed URLs with a
// bounded worker pool. Each worker owns its fetcher and agent, so the
// pipelines share no mutable state.
func (a *App) RunBatchExtraction(seedURLs []string) {
	log.Printf("--- Starting Batch Extraction Task for %d URLs ---", len(seedURLs))

	numWorkers := utils.GetOptimalWorkerCount(a.Config.Scraper.Workers)
	if numWorkers > len(seedURLs) {
		numWorkers = len(seedURLs)
	}
	jobs := make(chan string, len(seedURLs))
	results := make(chan error, len(seedURLs))
	const maxRetries = 2

	for w := 1; w <= numWorkers; w++ {
		go func(workerID int) {
			for seedURL := range jobs {
				log.Printf("[Worker %d] Extracting: %s", workerID, seedURL)
				var err error
				for attempt := 1; attempt <= maxRetries; attempt++ {
					err = a.RunExtraction(seedURL)
					if err == nil {
						break
					}
					log.Printf("[Worker %d] Attempt %d failed for %s: %v", workerID, attempt, seedURL, err)
					if attempt < maxRetries {
						time.Sleep(time.Second)
					}
				}
				results <- err
			}
		}(w)
	}

	for _, u := range seedURLs {
		jobs <- u
	}
	close(jobs)

	var failed int
	for range seedURLs {
		if err := <-results; err != nil {
			failed++
		}
	}
	log.Printf("--- Batch Extraction Task Finished. %d/%d succeeded. ---", len(seedURLs)-failed, len(seedURLs))
}
