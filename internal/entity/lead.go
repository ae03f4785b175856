package entity

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a business listing persisted after an extraction run.
type Lead struct {
	ID            uuid.UUID  `json:"id"`
	LeadKey       string     `json:"lead_key"`
	CardID        *string    `json:"card_id,omitempty"`
	Name          string     `json:"name"`
	Rating        *float64   `json:"rating,omitempty"`
	Reviews       int        `json:"reviews"`
	Phone         *string    `json:"phone,omitempty"`
	PhoneE164     *string    `json:"phone_e164,omitempty"`
	Address       *string    `json:"address,omitempty"`
	Website       *string    `json:"website,omitempty"`
	WebsiteHost   *string    `json:"website_host,omitempty"`
	Keyword       string     `json:"keyword"`
	Location      string     `json:"location"`
	DetailMatched bool       `json:"detail_matched"`
	RunID         *uuid.UUID `json:"run_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
