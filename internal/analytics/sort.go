package analytics

import (
	"fmt"
	"slices"
	"strings"
)

// Fielder exposes named columns of a record to the sort engine.
type Fielder interface {
	Field(name string) any
}

// Kind selects how a column is compared.
type Kind string

const (
	Numeric Kind = "numeric"
	Textual Kind = "textual"
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortSpec names a column, how to compare it and in which direction.
type SortSpec struct {
	Field     string    `json:"field"`
	Kind      Kind      `json:"kind"`
	Direction Direction `json:"direction"`
}

// Sort returns a sorted copy of items; items itself is never reordered.
// Numeric columns compare parse-or-zero values, textual columns compare
// case-insensitively with nil as blank. Equal elements keep their relative
// order, so callers must always sort the canonical list rather than a
// previously sorted view.
func Sort[T Fielder](items []T, spec SortSpec) []T {
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}
	cmp := comparator[T](spec)
	slices.SortStableFunc(out, cmp)
	return out
}

func comparator[T Fielder](spec SortSpec) func(a, b T) int {
	sign := 1
	if spec.Direction == Desc {
		sign = -1
	}
	if spec.Kind == Textual {
		return func(a, b T) int {
			return sign * strings.Compare(sortText(a.Field(spec.Field)), sortText(b.Field(spec.Field)))
		}
	}
	return func(a, b T) int {
		av, bv := ParseNumber(a.Field(spec.Field)), ParseNumber(b.Field(spec.Field))
		switch {
		case av < bv:
			return -sign
		case av > bv:
			return sign
		}
		return 0
	}
}

func sortText(v any) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(fmt.Sprint(v))
}
