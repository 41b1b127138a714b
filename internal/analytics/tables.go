package analytics

import (
	"fmt"
	"strconv"

	"retailpulse/pkg/contracts/domain"
)

// TableID names a re-sortable product view.
type TableID string

const (
	TableTopProducts   TableID = "top_products"
	TableReorderAlerts TableID = "reorder_alerts"
	TableProfitability TableID = "profitability"
	TableABC           TableID = "abc"
)

// Column is a sortable table column.
type Column struct {
	Field string `json:"field"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
}

// TableDef describes a view: its columns, default order and row limit.
// A zero Limit shows every row.
type TableDef struct {
	ID      TableID  `json:"id"`
	Title   string   `json:"title"`
	Columns []Column `json:"columns"`
	Default SortSpec `json:"default_sort"`
	Limit   int      `json:"limit,omitempty"`
}

var (
	colProduct      = Column{Field: "Product", Title: "Product", Kind: Textual}
	colCategory     = Column{Field: "Category", Title: "Category", Kind: Textual}
	colRevenue      = Column{Field: "Revenue", Title: "Revenue", Kind: Numeric}
	colProfit       = Column{Field: "Profit", Title: "Profit", Kind: Numeric}
	colMargin       = Column{Field: "Margin", Title: "Margin", Kind: Numeric}
	colQuantity     = Column{Field: "QuantitySold", Title: "Units Sold", Kind: Numeric}
	colStock        = Column{Field: "StockLevel", Title: "Stock Level", Kind: Numeric}
	colReorderPoint = Column{Field: "ReorderPoint", Title: "Reorder Point", Kind: Numeric}
	colSellThrough  = Column{Field: "SellThroughRate", Title: "Sell-Through Rate", Kind: Numeric}
	colCumShare     = Column{Field: "CumulativeShare", Title: "Cumulative %", Kind: Numeric}
	colSegment      = Column{Field: "Segment", Title: "Segment", Kind: Textual}
)

var tableDefs = []TableDef{
	{
		ID:      TableTopProducts,
		Title:   "Top Products",
		Columns: []Column{colProduct, colCategory, colRevenue, colProfit, colQuantity},
		Default: SortSpec{Field: "Revenue", Kind: Numeric, Direction: Desc},
		Limit:   10,
	},
	{
		ID:      TableReorderAlerts,
		Title:   "Reorder Alerts",
		Columns: []Column{colProduct, colStock, colReorderPoint},
		Default: SortSpec{Field: "StockLevel", Kind: Numeric, Direction: Asc},
	},
	{
		ID:      TableProfitability,
		Title:   "Product Profitability",
		Columns: []Column{colProduct, colMargin, colProfit, colSellThrough},
		Default: SortSpec{Field: "Margin", Kind: Numeric, Direction: Desc},
		Limit:   20,
	},
	{
		ID:      TableABC,
		Title:   "ABC Analysis",
		Columns: []Column{colProduct, colCategory, colRevenue, colCumShare, colSegment},
		Default: SortSpec{Field: "Revenue", Kind: Numeric, Direction: Desc},
	},
}

// Tables returns every table definition.
func Tables() []TableDef {
	return append([]TableDef(nil), tableDefs...)
}

// LookupTable finds a table definition by id.
func LookupTable(id TableID) (TableDef, bool) {
	for _, d := range tableDefs {
		if d.ID == id {
			return d, true
		}
	}
	return TableDef{}, false
}

// Column finds a column by field name.
func (d TableDef) Column(field string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// NextSort returns the order after a user picks field on a table currently
// ordered by current. Picking the same field flips the direction; a new
// numeric field starts descending and a new textual field ascending.
func (d TableDef) NextSort(current SortSpec, field string) (SortSpec, error) {
	col, ok := d.Column(field)
	if !ok {
		return SortSpec{}, fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, d.ID, field)
	}
	if current.Field == field {
		return SortSpec{Field: field, Kind: col.Kind, Direction: current.Direction.Opposite()}, nil
	}
	dir := Asc
	if col.Kind == Numeric {
		dir = Desc
	}
	return SortSpec{Field: field, Kind: col.Kind, Direction: dir}, nil
}

// Spec builds a sort spec for field and direction, taking the kind from
// the column definition.
func (d TableDef) Spec(field string, dir Direction) (SortSpec, error) {
	col, ok := d.Column(field)
	if !ok {
		return SortSpec{}, fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, d.ID, field)
	}
	return SortSpec{Field: field, Kind: col.Kind, Direction: dir}, nil
}

// TableView is one table sorted on demand.
type TableView struct {
	Table   TableID  `json:"table"`
	Title   string   `json:"title"`
	Sort    SortSpec `json:"sort"`
	Columns []Column `json:"columns"`
	Rows    []any    `json:"rows"`
	Total   int      `json:"total"`
}

// View sorts a table of result. A nil spec uses the table default. The sort
// always starts from the canonical list in result, never from an earlier
// view.
func View(result *domain.AnalysisResult, id TableID, spec *SortSpec) (TableView, error) {
	def, ok := LookupTable(id)
	if !ok {
		return TableView{}, fmt.Errorf("%w: %q", ErrUnknownTable, id)
	}
	s := def.Default
	if spec != nil {
		if _, ok := def.Column(spec.Field); !ok {
			return TableView{}, fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, id, spec.Field)
		}
		s = *spec
	}

	view := TableView{Table: id, Title: def.Title, Sort: s, Columns: def.Columns}
	switch id {
	case TableABC:
		rows := Sort(result.Products.ABCProducts, s)
		view.Total = len(rows)
		view.Rows = toAny(head(rows, limitOf(def)))
	case TableReorderAlerts:
		rows := Sort(lowStock(result.Products.AllProducts), s)
		view.Total = len(rows)
		view.Rows = toAny(head(rows, limitOf(def)))
	default:
		rows := Sort(result.Products.AllProducts, s)
		view.Total = len(rows)
		view.Rows = toAny(head(rows, limitOf(def)))
	}
	return view, nil
}

func limitOf(d TableDef) int {
	if d.Limit <= 0 {
		return -1
	}
	return d.Limit
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// Headers returns the column titles of the view.
func (v TableView) Headers() []string {
	out := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		out[i] = c.Title
	}
	return out
}

// Records renders the view rows as text cells in column order.
func (v TableView) Records() [][]string {
	out := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		f, ok := r.(Fielder)
		if !ok {
			continue
		}
		rec := make([]string, len(v.Columns))
		for i, c := range v.Columns {
			rec[i] = formatCell(f.Field(c.Field))
		}
		out = append(out, rec)
	}
	return out
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', 4, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
