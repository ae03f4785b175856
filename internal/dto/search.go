package dto

import "github.com/octobees/leads-extractor/internal/scraper"

// SearchRequest is the payload of the search endpoints. The location is
// composed from whichever of area, city, state and country are set.
type SearchRequest struct {
	Category     string   `json:"category" query:"category"`
	Country      string   `json:"country" query:"country"`
	State        string   `json:"state" query:"state"`
	City         string   `json:"city" query:"city"`
	Area         string   `json:"area" query:"area"`
	ProcessedIDs []string `json:"processedIds"`
}

// SearchResponse is returned by POST /search and carried by the final stream event.
type SearchResponse struct {
	Success bool           `json:"success"`
	RunID   string         `json:"runId,omitempty"`
	Count   int            `json:"count"`
	Data    []scraper.Lead `json:"data"`
	Meta    scraper.Meta   `json:"meta"`
	Error   string         `json:"error,omitempty"`
}
