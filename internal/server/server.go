package server

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"

	"ListingAgent/internal/database"
	"ListingAgent/internal/models"
	"ListingAgent/pkg/config"
)

// Start exposes the run history over a small read-only API.
func Start(repo *database.DBRepository, cfg *config.Config) {
	http.HandleFunc("/runs", withApiKey(cfg, runsHandler(repo)))
	http.HandleFunc("/listings", withApiKey(cfg, listingsHandler(repo)))

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting API server on port %s", port)
	log.Printf("Endpoints available at http://localhost:%s/runs and /listings?run_id=<id>", port)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// withApiKey rejects requests without the configured key. An empty configured
// key leaves the API open.
func withApiKey(cfg *config.Config, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Server.ApiKey != "" && r.Header.Get("X-Api-Key") != cfg.Server.ApiKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func parsePagination(r *http.Request) (page, limit, offset int) {
	queryParams := r.URL.Query()
	page, _ = strconv.Atoi(queryParams.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(queryParams.Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func runsHandler(repo *database.DBRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, offset := parsePagination(r)

		totalRuns, err := repo.CountRuns()
		if err != nil {
			http.Error(w, "Failed to count runs", http.StatusInternalServerError)
			return
		}
		totalPages := int(math.Ceil(float64(totalRuns) / float64(limit)))

		runs, err := repo.GetRuns(limit, offset)
		if err != nil {
			http.Error(w, "Failed to get runs", http.StatusInternalServerError)
			return
		}

		response := models.RunsResponse{
			Data: runs,
			Pagination: models.Pagination{
				TotalPages:  totalPages,
				CurrentPage: page,
			},
		}
		writeJSON(w, response)
	}
}

func listingsHandler(repo *database.DBRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run_id")
		if runID == "" {
			http.Error(w, "Missing run_id parameter", http.StatusBadRequest)
			return
		}
		page, limit, offset := parsePagination(r)

		totalListings, err := repo.CountListings(runID)
		if err != nil {
			http.Error(w, "Failed to count listings", http.StatusInternalServerError)
			return
		}
		totalPages := int(math.Ceil(float64(totalListings) / float64(limit)))

		listings, err := repo.GetListings(runID, limit, offset)
		if err != nil {
			http.Error(w, "Failed to get listings", http.StatusInternalServerError)
			return
		}

		response := models.ListingsResponse{
			Data: listings,
			Pagination: models.Pagination{
				TotalPages:  totalPages,
				CurrentPage: page,
			},
		}
		writeJSON(w, response)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
