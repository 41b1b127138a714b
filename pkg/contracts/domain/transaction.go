package domain

import "time"

// RawRow is one loosely typed row as produced by a tabular decoder.
// Keys are column headers; values are scalars (string, float64, int,
// time.Time or nil).
type RawRow map[string]any

// Transaction is a normalized retail transaction line.
type Transaction struct {
	Product      string    `json:"product"`
	Category     string    `json:"category"`
	OrderDate    time.Time `json:"order_date"`
	Sales        float64   `json:"sales"`
	Cost         float64   `json:"cost"`
	Profit       float64   `json:"profit"`
	Quantity     int       `json:"quantity"`
	StockLevel   int       `json:"stock_level"`
	ReorderPoint int       `json:"reorder_point"`
	OrderID      string    `json:"order_id"`
}

// Fallback literals used when a string dimension is missing or blank.
const (
	UnknownProduct  = "Unknown Product"
	DefaultCategory = "Other"
	NoOrderID       = "N/A"
)
