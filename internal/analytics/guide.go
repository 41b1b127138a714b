package analytics

// KPIDefinition documents one reported metric.
type KPIDefinition struct {
	KPI        string `json:"kpi"`
	Formula    string `json:"formula"`
	Definition string `json:"definition"`
	UseCase    string `json:"use_case"`
}

// ColumnGuide documents one expected input column.
type ColumnGuide struct {
	Field       Field    `json:"field"`
	Aliases     []string `json:"aliases"`
	Description string   `json:"description"`
	Usage       string   `json:"usage"`
}

var kpiGuide = []KPIDefinition{
	{"Total Revenue", "SUM(Sales)", "The total value of goods sold.", "Measures overall business performance and scale."},
	{"Total Profit", "SUM(Sales - Cost)", "The money left after subtracting cost of goods sold.", "The most direct measure of business health."},
	{"AOV (Avg. Order Value)", "Total Revenue / Total Orders", "The average amount spent each time a customer places an order.", "Helps determine customer spending habits and pricing strategy efficiency."},
	{"Profit Margin", "Total Profit / Total Revenue", "The share of revenue that turns into profit.", "Measures the efficiency and profitability of product pricing."},
	{"Inventory Turnover Rate (ITR)", "Total COGS / Ending Inventory Cost", "How many times inventory is sold and replaced over the period.", "Assesses inventory management efficiency; higher is usually better."},
	{"GMROI", "Total Profit / Ending Inventory Cost", "The gross margin returned for every unit of currency held in inventory.", "Evaluates product profitability and buying efficiency."},
	{"Customer Lifetime Value (CLV)", "Avg. Customer Revenue (order id proxy)", "The average revenue generated by a customer/order group.", "Sets a sustainable budget for customer acquisition."},
	{"Sales Per Area", "Total Revenue / Selling Area", "Revenue generated for each unit of selling space.", "Evaluates the productivity of physical retail space."},
	{"Conversion Rate", "Total Orders / Total Traffic", "The share of visitors who complete a purchase.", "Measures the efficiency of store layout or website design."},
	{"Sell-Through Rate (STR)", "Units Sold / (Units Sold + Remaining Units)", "The share of available units sold within the period.", "Drives markdown and ordering decisions."},
	{"ABC Segment", "Cumulative Revenue % (80/15/5)", "A = top 80% of revenue, B = next 15%, C = remaining 5%.", "Prioritizes inventory and merchandising efforts."},
	{"Reorder Alert", "StockLevel < ReorderPoint", "Raised when current stock is below the defined minimum.", "Avoids stockouts."},
}

var columnDescriptions = map[Field][2]string{
	FieldProduct:      {"Unique item name", "Product-level aggregation and rankings."},
	FieldCategory:     {"Product grouping", "Sales by category."},
	FieldOrderDate:    {"Date of sale (DD/MM/YYYY or ISO)", "Monthly and daily trends, date filters."},
	FieldSales:        {"Selling price of the line", "Revenue and order value."},
	FieldCost:         {"Cost price of the line", "Profit and margin; multiplied by quantity for COGS."},
	FieldStockLevel:   {"Current units in stock", "Low stock alerts and ending inventory cost."},
	FieldReorderPoint: {"Stock level trigger", "Low stock alerts (StockLevel < ReorderPoint)."},
	FieldQuantity:     {"Units sold in the line", "Units sold, COGS and sell-through."},
	FieldOrderID:      {"Order or invoice identifier", "Order count and customer proxy."},
}

// KPIGuide returns the definitions of every reported KPI.
func KPIGuide() []KPIDefinition {
	return append([]KPIDefinition(nil), kpiGuide...)
}

// RequiredColumns describes every canonical input column.
func RequiredColumns() []ColumnGuide {
	out := make([]ColumnGuide, 0, len(Fields))
	for _, f := range Fields {
		d := columnDescriptions[f]
		out = append(out, ColumnGuide{Field: f, Aliases: Aliases(f), Description: d[0], Usage: d[1]})
	}
	return out
}
