// Package writer persists validated result sets to timestamped CSV files.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ListingAgent/internal/models"
)

const filenameLayout = "2006-01-02_15-04-05"

// now is swapped out in tests.
var now = time.Now

// Filename derives the output file name from the run's local start time.
func Filename(t time.Time) string {
	return fmt.Sprintf("product_listings_%s.csv", t.Format(filenameLayout))
}

// Write serializes the listings to a CSV file in dir and returns its path.
// The file has one header row and one data row per listing, columns in the
// fixed brand_name, product_name, price, rating_count order. A file with the
// same second-resolution timestamp is overwritten.
func Write(dir string, listings []models.ProductListing) (string, error) {
	path := filepath.Join(dir, Filename(now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.CSVHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, l := range listings {
		if err := w.Write(l.CSVRow()); err != nil {
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}
