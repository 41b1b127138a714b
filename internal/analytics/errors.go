package analytics

import (
	"errors"
	"strings"
)

var (
	// ErrNoRows is matched by a StructureError raised for empty input.
	ErrNoRows = errors.New("data file is empty or could not be parsed")

	// ErrEmptyAfterFilter signals that active filter criteria removed every
	// transaction. It is distinct from running without any filter.
	ErrEmptyAfterFilter = errors.New("no data remains after applying current filters")

	// ErrNoValidRows signals that every row was rejected during normalization.
	ErrNoValidRows = errors.New("no rows with a usable order date and required fields")

	// ErrUnknownTable is returned for a table id with no definition.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned when sorting by a column a table does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// Messages shown to end users for the conditions above.
const (
	EmptyDataMessage   = "Data file is empty or could not be parsed."
	EmptyFilterMessage = "No data remains after applying current filters. Please clear filters and try again."
)

// StructureError aggregates every structural problem found in a dataset
// before any aggregation runs.
type StructureError struct {
	Problems []string
	empty    bool
}

func (e *StructureError) Error() string {
	return "invalid data structure: " + strings.Join(e.Problems, "; ")
}

// Is lets errors.Is(err, ErrNoRows) match the empty-input case.
func (e *StructureError) Is(target error) bool {
	return e.empty && target == ErrNoRows
}
