package models

import "time"

// ProductListing holds one product extracted from a listing page.
// Price and RatingCount are kept as free-form text the way they appear on the
// page; a nil pointer means the model did not find the value at all.
type ProductListing struct {
	BrandName   string  `json:"brand_name"`
	ProductName string  `json:"product_name"`
	Price       *string `json:"price"`
	RatingCount *string `json:"rating_count"`
}

// ResultSet is the structured output of a single extraction run.
type ResultSet struct {
	Dataset []ProductListing `json:"dataset"`
}

// CSVHeader is the fixed column order of the output file.
var CSVHeader = []string{"brand_name", "product_name", "price", "rating_count"}

// CSVRow renders the listing as one CSV row. Absent optional fields render as
// empty cells.
func (p ProductListing) CSVRow() []string {
	row := []string{p.BrandName, p.ProductName, "", ""}
	if p.Price != nil {
		row[2] = *p.Price
	}
	if p.RatingCount != nil {
		row[3] = *p.RatingCount
	}
	return row
}

// Run records one completed extraction run in the history database.
type Run struct {
	ID           string    `json:"id"`
	SeedURL      string    `json:"seed_url"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Status       string    `json:"status"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CSVPath      string    `json:"csv_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoredListing is a ProductListing as persisted in the history database,
// with its run association and a best-effort numeric price.
type StoredListing struct {
	ID          int64   `json:"id"`
	RunID       string  `json:"run_id"`
	Position    int     `json:"position"`
	BrandName   string  `json:"brand_name"`
	ProductName string  `json:"product_name"`
	Price       *string `json:"price"`
	RatingCount *string `json:"rating_count"`
	PriceValue  float64 `json:"price_value"`
}

// Pagination describes the paging state of an API response.
type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// RunsResponse is the payload of the /runs endpoint.
type RunsResponse struct {
	Data       []Run      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListingsResponse is the payload of the /listings endpoint.
type ListingsResponse struct {
	Data       []StoredListing `json:"data"`
	Pagination Pagination      `json:"pagination"`
}
