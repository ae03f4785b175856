package dto

import "github.com/google/uuid"

// ListFilter contains query parameters for the stored leads endpoints.
type ListFilter struct {
	Q             string
	Keyword       string
	Location      string
	MinRating     *float64
	WebsiteStatus string
	PhoneStatus   string
	MatchedOnly   bool
	RunID         *uuid.UUID
	Sort          string
	Page          int
	PerPage       int
}
