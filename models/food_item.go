package models

// FoodItem is one tracked perishable, synced from a client. Dates travel as
// strings on the wire: expiryDate is a plain YYYY-MM-DD calendar date,
// createdAt an RFC3339 timestamp.
type FoodItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ExpiryDate string `json:"expiryDate"`
	CreatedAt  string `json:"createdAt,omitempty"`
}
