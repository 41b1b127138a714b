package domain

// Field returns the named column of a product summary, or nil when the
// name is unknown. Names match the table column identifiers.
func (p ProductSummary) Field(name string) any {
	switch name {
	case "Product":
		return p.Product
	case "Category":
		return p.Category
	case "Revenue":
		return p.Revenue
	case "Profit":
		return p.Profit
	case "Quantity", "QuantitySold":
		return p.QuantitySold
	case "COGS", "TotalCOGS":
		return p.TotalCOGS
	case "StockLevel":
		return p.StockLevel
	case "ReorderPoint":
		return p.ReorderPoint
	case "Margin":
		return p.Margin
	case "AvgUnitCost":
		return p.AvgUnitCost
	case "SellThroughRate":
		return p.SellThroughRate
	case "IsLowStock":
		return p.IsLowStock
	}
	return nil
}

// Field extends ProductSummary.Field with the ranking columns.
func (e ABCEntry) Field(name string) any {
	switch name {
	case "CumulativeRevenue":
		return e.CumulativeRevenue
	case "CumulativeShare":
		return e.CumulativeShare
	case "Segment":
		return string(e.Segment)
	}
	return e.ProductSummary.Field(name)
}
