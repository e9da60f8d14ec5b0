package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ListingAgent/internal/models"
)

func TestFilename(t *testing.T) {
	started := time.Date(2024, 6, 1, 10, 15, 30, 0, time.Local)
	got := Filename(started)
	want := "product_listings_2024-06-01_10-15-30.csv"
	if got != want {
		t.Errorf("Filename(%v) = %q; want %q", started, got, want)
	}
}

func TestWrite(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 10, 15, 30, 0, time.Local)
	now = func() time.Time { return fixed }
	defer func() { now = time.Now }()

	price := "$49"
	ratingA := "120"
	ratingB := "30"
	listings := []models.ProductListing{
		{BrandName: "Acme", ProductName: "Chair", Price: &price, RatingCount: &ratingA},
		{BrandName: "Acme", ProductName: "Lamp", RatingCount: &ratingB},
	}

	dir := t.TempDir()
	path, err := Write(dir, listings)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if filepath.Base(path) != "product_listings_2024-06-01_10-15-30.csv" {
		t.Errorf("output path = %q; want the timestamped filename", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows; want 3 (header + 2 data rows)", len(rows))
	}
	if !reflect.DeepEqual(rows[0], []string{"brand_name", "product_name", "price", "rating_count"}) {
		t.Errorf("header = %v; want the fixed column order", rows[0])
	}
	if !reflect.DeepEqual(rows[1], []string{"Acme", "Chair", "$49", "120"}) {
		t.Errorf("first data row = %v", rows[1])
	}
	if !reflect.DeepEqual(rows[2], []string{"Acme", "Lamp", "", "30"}) {
		t.Errorf("second data row = %v; want an empty price cell", rows[2])
	}
}

func TestWriteEmptySet(t *testing.T) {
	// The validator blocks empty sets upstream, but the writer itself still
	// produces a header-only file when handed nothing.
	dir := t.TempDir()
	path, err := Write(dir, nil)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != "brand_name,product_name,price,rating_count\n" {
		t.Errorf("output = %q; want only the header row", data)
	}
}
