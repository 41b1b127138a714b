package analytics

import (
	"retailpulse/pkg/contracts/domain"
)

// RejectReason explains why a row produced no transaction.
type RejectReason int

const (
	Accepted RejectReason = iota
	RejectMissingField
	RejectBadDate
)

func (r RejectReason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectMissingField:
		return "missing_field"
	case RejectBadDate:
		return "bad_date"
	}
	return "unknown"
}

// NormalizeStats counts normalization outcomes.
type NormalizeStats struct {
	Input         int
	Accepted      int
	MissingFields int
	BadDates      int
}

// Rejected is the total number of dropped rows.
func (s NormalizeStats) Rejected() int { return s.MissingFields + s.BadDates }

// Normalize converts one raw row into a transaction. Numeric fields never
// fail: unparseable values become zero. Blank strings fall back to fixed
// literals.
func Normalize(row domain.RawRow, res Resolution) (domain.Transaction, RejectReason) {
	if len(res.Missing(criticalFields...)) > 0 {
		return domain.Transaction{}, RejectMissingField
	}

	date, ok := ParseDate(row[res[FieldOrderDate]])
	if !ok {
		return domain.Transaction{}, RejectBadDate
	}

	sales := ParseNumber(row[res[FieldSales]])
	cost := ParseNumber(row[res[FieldCost]])

	return domain.Transaction{
		Product:      stringOr(row, res, FieldProduct, domain.UnknownProduct),
		Category:     stringOr(row, res, FieldCategory, domain.DefaultCategory),
		OrderDate:    date,
		Sales:        sales,
		Cost:         cost,
		Profit:       sales - cost,
		Quantity:     ParseInt(row[res[FieldQuantity]]),
		StockLevel:   ParseInt(row[res[FieldStockLevel]]),
		ReorderPoint: ParseInt(row[res[FieldReorderPoint]]),
		OrderID:      stringOr(row, res, FieldOrderID, domain.NoOrderID),
	}, Accepted
}

func stringOr(row domain.RawRow, res Resolution, f Field, fallback string) string {
	key, ok := res.Key(f)
	if !ok {
		return fallback
	}
	if s := cellString(row[key]); s != "" {
		return s
	}
	return fallback
}

// NormalizeAll resolves and normalizes every row, keeping input order.
// Resolution happens per row so a file may switch column naming midway.
func NormalizeAll(rows []domain.RawRow) ([]domain.Transaction, NormalizeStats) {
	stats := NormalizeStats{Input: len(rows)}
	txs := make([]domain.Transaction, 0, len(rows))

	for _, row := range rows {
		tx, reason := Normalize(row, Resolve(row))
		switch reason {
		case RejectMissingField:
			stats.MissingFields++
			continue
		case RejectBadDate:
			stats.BadDates++
			continue
		}
		txs = append(txs, tx)
	}
	stats.Accepted = len(txs)
	return txs, stats
}
