package analytics

import (
	"fmt"
	"strings"

	"retailpulse/pkg/contracts/domain"
)

// Field is a canonical transaction attribute.
type Field string

const (
	FieldProduct      Field = "Product"
	FieldCategory     Field = "Category"
	FieldOrderDate    Field = "OrderDate"
	FieldSales        Field = "Sales"
	FieldCost         Field = "Cost"
	FieldStockLevel   Field = "StockLevel"
	FieldReorderPoint Field = "ReorderPoint"
	FieldQuantity     Field = "Quantity"
	FieldOrderID      Field = "OrderID"
)

// Fields lists the canonical fields in the order they are reported.
var Fields = []Field{
	FieldProduct,
	FieldCategory,
	FieldOrderDate,
	FieldSales,
	FieldCost,
	FieldStockLevel,
	FieldReorderPoint,
	FieldQuantity,
	FieldOrderID,
}

// aliases are tried in order; the first header present wins.
var aliases = map[Field][]string{
	FieldProduct:      {"Product", "SKU"},
	FieldCategory:     {"Category", "Dept"},
	FieldOrderDate:    {"OrderDate", "Order Date", "Date", "TransactionDate"},
	FieldSales:        {"Sales", "Revenue", "Price"},
	FieldCost:         {"Cost", "CostPrice", "COGS"},
	FieldStockLevel:   {"StockLevel", "Stock", "Inventory"},
	FieldReorderPoint: {"ReorderPoint", "ROP"},
	FieldQuantity:     {"Quantity", "Units"},
	FieldOrderID:      {"OrderID", "InvoiceID", "TransactionID"},
}

// criticalFields must resolve for a row to be normalized.
var criticalFields = []Field{
	FieldSales,
	FieldCost,
	FieldOrderDate,
	FieldProduct,
	FieldQuantity,
	FieldStockLevel,
	FieldReorderPoint,
}

// dateSampleSize is how many leading rows have their dates checked during
// structure validation.
const dateSampleSize = 10

// Aliases returns the accepted column names for a field.
func Aliases(f Field) []string {
	return append([]string(nil), aliases[f]...)
}

// Resolution maps each canonical field to the row key carrying it.
// Fields absent from the map were not found.
type Resolution map[Field]string

// Key returns the row key for a field.
func (r Resolution) Key(f Field) (string, bool) {
	k, ok := r[f]
	return k, ok
}

// Missing lists the given fields that did not resolve.
func (r Resolution) Missing(fields ...Field) []Field {
	var out []Field
	for _, f := range fields {
		if _, ok := r[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Resolve finds, for every canonical field, the first alias present as a
// key on the row. Header whitespace is ignored. It never fails; absent
// fields are simply left out of the resolution.
func Resolve(row domain.RawRow) Resolution {
	index := headerIndex(row)
	res := make(Resolution, len(Fields))
	for _, f := range Fields {
		for _, alias := range aliases[f] {
			if key, ok := index[alias]; ok {
				res[f] = key
				break
			}
		}
	}
	return res
}

// headerIndex maps trimmed header names to the original row keys. An exact
// key wins over a padded one when both trim to the same name.
func headerIndex(row domain.RawRow) map[string]string {
	idx := make(map[string]string, len(row))
	for k := range row {
		t := strings.TrimSpace(k)
		if existing, ok := idx[t]; ok && existing == t {
			continue
		}
		idx[t] = k
	}
	return idx
}

// ValidateStructure checks a dataset before any aggregation. Headers are
// taken from the first row. When every field resolves, the first rows are
// sampled for unparseable order dates. All problems are collected into a
// single *StructureError.
func ValidateStructure(rows []domain.RawRow) error {
	if len(rows) == 0 {
		return &StructureError{Problems: []string{EmptyDataMessage}, empty: true}
	}

	res := Resolve(rows[0])
	var problems []string
	for _, f := range res.Missing(Fields...) {
		problems = append(problems, fmt.Sprintf(
			"Missing required field: %s. Please ensure your data has one of these column headers: %s.",
			f, strings.Join(aliases[f], ", ")))
	}

	if len(problems) == 0 {
		dateKey, _ := res.Key(FieldOrderDate)
		n := min(dateSampleSize, len(rows))
		for i := 0; i < n; i++ {
			v := rows[i][dateKey]
			if _, ok := ParseDate(v); !ok {
				// Row numbers are 1-based and count the header line.
				problems = append(problems, fmt.Sprintf(
					"Data type error: 'OrderDate' value in row %d ('%v') is invalid. Check formatting (e.g., DD/MM/YYYY).",
					i+2, displayValue(v)))
			}
		}
	}

	if len(problems) > 0 {
		return &StructureError{Problems: problems}
	}
	return nil
}

func displayValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
