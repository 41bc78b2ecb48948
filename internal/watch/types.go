package watch

import "time"

// Item represents one monitored product
type Item struct {
	ID             int64
	URL            string // canonical form, unique across the store
	OriginalURL    string // as submitted by the user
	Title          *string
	ImageURL       *string
	Currency       string
	TriggerPrice   float64
	SellPrice      *float64
	Category       *string
	LastPrice      *float64
	LastAlertPrice *float64
	LastCheckedAt  *time.Time
	Active         bool
	CreatedAt      time.Time
}

// Observation is the best-effort result of extracting a product page.
// Absent fields are nil; extraction itself never fails.
type Observation struct {
	Price    *float64
	Currency *string
	Title    *string
	ImageURL *string
}

// Alert is the payload delivered to notification destinations when an
// item crosses its trigger.
type Alert struct {
	ItemID        int64    `json:"item_id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Currency      string   `json:"currency"`
	PreviousPrice *float64 `json:"previous_price,omitempty"`
	CurrentPrice  float64  `json:"current_price"`
	TriggerPrice  float64  `json:"trigger_price"`
	SellPrice     *float64 `json:"sell_price,omitempty"`
	Category      *string  `json:"category,omitempty"`
	ImageURL      *string  `json:"image_url,omitempty"`
}
