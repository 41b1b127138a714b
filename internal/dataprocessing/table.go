package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"retailpulse/pkg/contracts/domain"
)

const utf8BOM = "\uFEFF"

// header is the cleaned header row. Blank header cells are dropped, and a
// repeated name keeps its first column.
type header struct {
	names []string
	cols  []int
}

func newHeader(cells []any) header {
	var h header
	seen := make(map[string]bool, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(strings.TrimPrefix(cellText(c), utf8BOM))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		h.names = append(h.names, name)
		h.cols = append(h.cols, i)
	}
	return h
}

// row maps one record onto the header. It reports false for a record with
// no non-blank cell.
func (h header) row(cells []any) (domain.RawRow, bool) {
	out := make(domain.RawRow, len(h.names))
	blank := true
	for i, name := range h.names {
		var v any
		if col := h.cols[i]; col < len(cells) {
			v = cleanCell(cells[col])
		}
		if v != nil {
			blank = false
		}
		out[name] = v
	}
	return out, !blank
}

// buildRows converts a table whose first non-blank record is the header.
// A table with no header yields no rows.
func buildRows(records [][]any) []domain.RawRow {
	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil
	}
	h := newHeader(records[start])
	rows := make([]domain.RawRow, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if r, ok := h.row(rec); ok {
			rows = append(rows, r)
		}
	}
	return rows
}

// cleanCell trims strings and turns blank cells into nil. Other values
// pass through.
func cleanCell(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		return s
	}
	return v
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func isBlank(rec []any) bool {
	for _, c := range rec {
		if cleanCell(c) != nil {
			return false
		}
	}
	return true
}

func stringsToCells(rec []string) []any {
	out := make([]any, len(rec))
	for i, s := range rec {
		out[i] = s
	}
	return out
}
