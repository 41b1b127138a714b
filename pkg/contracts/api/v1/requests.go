// Package api contains the request and response contracts of the
// RetailPulse HTTP API. Version v1 is the current stable API version.
package api

import (
	"fmt"
	"strings"
	"time"

	"retailpulse/pkg/contracts/domain"
)

// DateLayout is the date format accepted by filter requests.
const DateLayout = "2006-01-02"

// FilterRequest restricts an analysis run. Dates are inclusive calendar
// days in YYYY-MM-DD form; empty lists leave a dimension unrestricted.
type FilterRequest struct {
	StartDate  string   `json:"start_date,omitempty" validate:"isodate"`
	EndDate    string   `json:"end_date,omitempty" validate:"isodate"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,dive,required,max=200"`
	Products   []string `json:"products,omitempty" validate:"omitempty,dive,required,max=200"`
}

// Criteria converts the request into filter criteria. Values are trimmed
// and blank entries dropped.
func (r FilterRequest) Criteria() (domain.FilterCriteria, error) {
	var c domain.FilterCriteria
	var err error
	if c.StartDate, err = parseDay(r.StartDate); err != nil {
		return c, fmt.Errorf("start_date: %w", err)
	}
	if c.EndDate, err = parseDay(r.EndDate); err != nil {
		return c, fmt.Errorf("end_date: %w", err)
	}
	c.Categories = trimAll(r.Categories)
	c.Products = trimAll(r.Products)
	return c, nil
}

// AnalyzeRequest is the body of POST /api/analysis. Omitted store
// constants keep their current values.
type AnalyzeRequest struct {
	FilterRequest
	SellingArea *float64 `json:"selling_area,omitempty" validate:"omitnil,gte=0"`
	Traffic     *float64 `json:"traffic,omitempty" validate:"omitnil,gte=0"`
}

// RowsRequest is the body of POST /api/dataset/rows.
type RowsRequest struct {
	Name string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Rows []domain.RawRow `json:"rows" validate:"required,min=1"`
}

// SheetsRequest is the body of POST /api/dataset/sheets. Spreadsheet is
// an id or a full Google Sheets URL.
type SheetsRequest struct {
	Spreadsheet string `json:"spreadsheet" validate:"required,min=10"`
	Range       string `json:"range,omitempty" validate:"omitempty,max=100"`
}

// SampleRequest holds the query of POST /api/dataset/sample.
type SampleRequest struct {
	Rows int `json:"rows" validate:"gte=0,lte=200000"`
}

// TableRequest holds the query of GET /api/analysis/tables/{table}.
type TableRequest struct {
	Sort string `json:"sort" validate:"omitempty,max=50"`
	Dir  string `json:"dir" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// ExportRequest holds the query of the export endpoints.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
