package domain

import "time"

// FilterCriteria restricts which transactions enter an analysis run.
// A nil date or an empty list leaves that dimension unrestricted.
type FilterCriteria struct {
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Products   []string   `json:"products,omitempty"`
}

// IsEmpty reports whether no dimension is restricted.
func (f FilterCriteria) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && len(f.Categories) == 0 && len(f.Products) == 0
}

// BusinessConfig carries the store constants used by the ratio KPIs.
type BusinessConfig struct {
	SellingArea float64 `json:"selling_area" yaml:"selling_area" validate:"gte=0"`
	Traffic     float64 `json:"traffic" yaml:"traffic" validate:"gte=0"`
}

// DefaultBusinessConfig returns the store constants used when none are supplied.
func DefaultBusinessConfig() BusinessConfig {
	return BusinessConfig{SellingArea: 5000, Traffic: 5000}
}

// FilterOptions lists the values a caller can filter on for a dataset.
type FilterOptions struct {
	Categories []string   `json:"categories"`
	Products   []string   `json:"products"`
	MinDate    *time.Time `json:"min_date,omitempty"`
	MaxDate    *time.Time `json:"max_date,omitempty"`
}
