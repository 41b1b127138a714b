package exporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"retailpulse/internal/analytics"
	"retailpulse/pkg/contracts/domain"
)

const summarySheet = "Summary"

// WriteWorkbook writes a workbook with a Summary sheet for result (when
// non-nil) and one sheet per view.
func WriteWorkbook(w io.Writer, result *domain.AnalysisResult, views ...analytics.TableView) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	first := true
	useSheet := func(name string) error {
		if first {
			first = false
			return f.SetSheetName("Sheet1", name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	if result != nil {
		if err := useSheet(summarySheet); err != nil {
			return err
		}
		if err := writeSummary(f, result, header); err != nil {
			return err
		}
	}
	for _, v := range views {
		name := sheetName(v.Title)
		if err := useSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
		if err := writeViewSheet(f, name, v, header); err != nil {
			return err
		}
	}
	if first {
		return fmt.Errorf("nothing to export")
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeViewSheet(f *excelize.File, sheet string, v analytics.TableView, header int) error {
	titles := v.Headers()
	row := make([]any, len(titles))
	for i, t := range titles {
		row[i] = t
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, len(titles), header); err != nil {
		return err
	}

	for r, item := range v.Rows {
		fielder, ok := item.(analytics.Fielder)
		if !ok {
			continue
		}
		cells := make([]any, len(v.Columns))
		for i, c := range v.Columns {
			cells[i] = cellValue(fielder.Field(c.Field))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, r *domain.AnalysisResult, header int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Run ID", r.RunID},
		{"Generated At", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Total Revenue", r.Core.TotalRevenue},
		{"Total Cost", r.Core.TotalCost},
		{"Total Profit", r.Core.TotalProfit},
		{"Profit Margin", r.Core.ProfitMargin},
		{"Average Order Value", r.Core.AvgOrderValue},
		{"Total Orders", r.Core.TotalOrders},
		{"Unique Customers", r.Core.UniqueCustomers},
		{"Customer Lifetime Value", r.Core.CLV},
		{"Sales per Area", r.Core.SalesPerArea},
		{"Conversion Rate", r.Core.ConversionRate},
		{"Inventory Turnover", r.Inventory.InventoryTurnover},
		{"GMROI", r.Inventory.GMROI},
		{"Average Sell-Through Rate", r.Inventory.AvgSellThroughRate},
		{"Ending Inventory Cost", r.Inventory.EndingInventoryCost},
		{"Low Stock Products", r.Inventory.LowStockCount},
		{"Rows Accepted", r.Stats.AcceptedRows},
		{"Rows Rejected", r.Stats.RejectedRows},
	}
	for _, month := range sortedKeys(r.Core.MonthlySales) {
		rows = append(rows, []any{"Sales " + month, r.Core.MonthlySales[month]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := styleHeader(f, summarySheet, 2, header); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	if cols == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// cellValue keeps numbers numeric and renders everything else as text.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case float64, int, bool, string:
		return t
	}
	return fmt.Sprint(v)
}

// sheetName trims a title to the 31 character sheet name limit.
func sheetName(title string) string {
	r := []rune(title)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
