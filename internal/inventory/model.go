package inventory

import "time"

// Product is a stock item. WeightKg feeds the freight surcharge when
// the product appears on an invoice; zero marks weightless goods and
// services.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	WeightKg    float64   `json:"weight_kg"`
	Quantity    float64   `json:"quantity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
