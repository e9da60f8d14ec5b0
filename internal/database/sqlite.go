package database

import (
	"database/sql"
	"log"

	"ListingAgent/internal/models"
	"ListingAgent/utils"

	_ "modernc.org/sqlite" // pure Go driver
)

// DBRepository wraps the run-history database connection.
type DBRepository struct {
	DB *sql.DB
}

// InitDB opens (or creates) the history database and its tables.
func InitDB(filepath string) *DBRepository {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	if err = db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}

	createRunsTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		"id" TEXT NOT NULL PRIMARY KEY,
		"seed_url" TEXT,
		"provider" TEXT,
		"model" TEXT,
		"status" TEXT DEFAULT 'completed',
		"input_tokens" INTEGER,
		"output_tokens" INTEGER,
		"total_tokens" INTEGER,
		"csv_path" TEXT,
		"created_at" DATETIME
	);`
	if _, err = db.Exec(createRunsTableSQL); err != nil {
		log.Fatalf("Error creating runs table: %v", err)
	}

	createListingsTableSQL := `
	CREATE TABLE IF NOT EXISTS listings (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"run_id" TEXT,
		"position" INTEGER,
		"brand_name" TEXT,
		"product_name" TEXT,
		"price" TEXT,
		"rating_count" TEXT,
		"price_value" REAL
	);`
	if _, err = db.Exec(createListingsTableSQL); err != nil {
		log.Fatalf("Error creating listings table: %v", err)
	}

	log.Println("Database and tables initialized successfully.")
	return &DBRepository{DB: db}
}

// Close closes the database connection.
func (repo *DBRepository) Close() {
	repo.DB.Close()
}

// SaveRun records one completed run and its listings in a single transaction.
func (repo *DBRepository) SaveRun(run models.Run, listings []models.ProductListing) error {
	tx, err := repo.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			id, seed_url, provider, model, status,
			input_tokens, output_tokens, total_tokens, csv_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SeedURL, run.Provider, run.Model, run.Status,
		run.InputTokens, run.OutputTokens, run.TotalTokens, run.CSVPath, run.CreatedAt,
	)
	if err != nil {
		log.Printf("Failed to save run %s: %v", run.ID, err)
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO listings (
			run_id, position, brand_name, product_name, price, rating_count, price_value
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range listings {
		priceValue := 0.0
		if l.Price != nil {
			priceValue = utils.ParsePrice(*l.Price)
		}
		if _, err := stmt.Exec(run.ID, i, l.BrandName, l.ProductName, l.Price, l.RatingCount, priceValue); err != nil {
			log.Printf("Failed to save listing %d of run %s: %v", i, run.ID, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("Recorded run %s with %d listings", run.ID, len(listings))
	return nil
}

// CountRuns returns the number of recorded runs.
func (repo *DBRepository) CountRuns() (int, error) {
	var count int
	err := repo.DB.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// GetRuns returns recorded runs, newest first.
func (repo *DBRepository) GetRuns(limit, offset int) ([]models.Run, error) {
	rows, err := repo.DB.Query(`
		SELECT id, seed_url, provider, model, status,
		       input_tokens, output_tokens, total_tokens, csv_path, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var r models.Run
		if err := rows.Scan(
			&r.ID, &r.SeedURL, &r.Provider, &r.Model, &r.Status,
			&r.InputTokens, &r.OutputTokens, &r.TotalTokens, &r.CSVPath, &r.CreatedAt,
		); err != nil {
			log.Printf("Error scanning run row: %v", err)
			continue
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// CountListings returns the number of listings recorded for a run.
func (repo *DBRepository) CountListings(runID string) (int, error) {
	var count int
	err := repo.DB.QueryRow("SELECT COUNT(*) FROM listings WHERE run_id = ?", runID).Scan(&count)
	return count, err
}

// GetListings returns the listings of one run in extraction order.
func (repo *DBRepository) GetListings(runID string, limit, offset int) ([]models.StoredListing, error) {
	rows, err := repo.DB.Query(`
		SELECT id, run_id, position, brand_name, product_name, price, rating_count, price_value
		FROM listings
		WHERE run_id = ?
		ORDER BY position ASC
		LIMIT ? OFFSET ?`, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.StoredListing
	for rows.Next() {
		var l models.StoredListing
		if err := rows.Scan(
			&l.ID, &l.RunID, &l.Position, &l.BrandName, &l.ProductName,
			&l.Price, &l.RatingCount, &l.PriceValue,
		); err != nil {
			log.Printf("Error scanning listing row: %v", err)
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}
