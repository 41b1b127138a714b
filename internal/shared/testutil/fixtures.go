package testutil

import "retailpulse/pkg/contracts/domain"

// RetailRow builds a raw row with the canonical headers. Dates use the
// DD/MM/YYYY form most exports carry.
func RetailRow(product, category, date string, sales, cost float64, qty, stock, rop int, orderID string) domain.RawRow {
	return domain.RawRow{
		"Product":      product,
		"Category":     category,
		"OrderDate":    date,
		"Sales":        sales,
		"Cost":         cost,
		"Quantity":     qty,
		"StockLevel":   stock,
		"ReorderPoint": rop,
		"OrderID":      orderID,
	}
}

// RetailRows returns a small dataset: three products across two
// categories and two months, with "Gadget" below its reorder point.
func RetailRows() []domain.RawRow {
	return []domain.RawRow{
		RetailRow("Widget", "Tools", "05/01/2024", 300, 120, 3, 40, 10, "ORD1"),
		RetailRow("Gadget", "Electronics", "06/01/2024", 100, 60, 1, 4, 8, "ORD2"),
		RetailRow("Widget", "Tools", "10/02/2024", 200, 80, 2, 38, 10, "ORD3"),
		RetailRow("Cable", "Electronics", "11/02/2024", 50, 20, 5, 100, 20, "ORD3"),
	}
}
