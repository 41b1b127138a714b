package domain

import (
	"time"
)

// Segment is an ABC revenue band.
type Segment string

const (
	SegmentA Segment = "A"
	SegmentB Segment = "B"
	SegmentC Segment = "C"
)

// ProductSummary aggregates every transaction of one product.
// StockLevel, ReorderPoint and Category hold the last value observed in
// input order, not a point-in-time snapshot.
type ProductSummary struct {
	Product         string  `json:"product"`
	Category        string  `json:"category"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"profit"`
	QuantitySold    int     `json:"quantity_sold"`
	TotalCOGS       float64 `json:"total_cogs"`
	StockLevel      int     `json:"stock_level"`
	ReorderPoint    int     `json:"reorder_point"`
	Margin          float64 `json:"margin"`
	AvgUnitCost     float64 `json:"avg_unit_cost"`
	SellThroughRate float64 `json:"sell_through_rate"`
	IsLowStock      bool    `json:"is_low_stock"`
}

// ABCEntry is a product ranked by revenue with its cumulative share.
type ABCEntry struct {
	ProductSummary
	CumulativeRevenue float64 `json:"cumulative_revenue"`
	CumulativeShare   float64 `json:"cumulative_share"`
	Segment           Segment `json:"segment"`
}

// CoreMetrics holds the financial and customer KPIs of a run.
type CoreMetrics struct {
	TotalRevenue    float64            `json:"total_revenue"`
	TotalCost       float64            `json:"total_cost"`
	TotalProfit     float64            `json:"total_profit"`
	ProfitMargin    float64            `json:"profit_margin"`
	AvgOrderValue   float64            `json:"avg_order_value"`
	TotalOrders     int                `json:"total_orders"`
	UniqueCustomers int                `json:"unique_customers"`
	CLV             float64            `json:"clv"`
	SalesPerArea    float64            `json:"sales_per_area"`
	ConversionRate  float64            `json:"conversion_rate"`
	MonthlySales    map[string]float64 `json:"monthly_sales"`
	DailySales      map[string]float64 `json:"daily_sales"`
	CategorySales   map[string]float64 `json:"category_sales"`
}

// InventoryMetrics holds the inventory-wide KPIs of a run.
// All ratios are computed against ending inventory only.
type InventoryMetrics struct {
	TotalCOGS           float64 `json:"total_cogs"`
	EndingInventoryCost float64 `json:"ending_inventory_cost"`
	InventoryTurnover   float64 `json:"inventory_turnover"`
	GMROI               float64 `json:"gmroi"`
	AvgSellThroughRate  float64 `json:"avg_sell_through_rate"`
	TotalStockUnits     int     `json:"total_stock_units"`
	TotalProducts       int     `json:"total_products"`
	LowStockCount       int     `json:"low_stock_count"`
}

// ProductData groups the per-product derived lists.
type ProductData struct {
	TopProductsByRevenue []ProductSummary `json:"top_products_by_revenue"`
	TopProductsByProfit  []ProductSummary `json:"top_products_by_profit"`
	ReorderAlerts        []ProductSummary `json:"reorder_alerts"`
	AllProducts          []ProductSummary `json:"all_products"`
	ABCProducts          []ABCEntry       `json:"abc_products"`
}

// RunStats counts what happened to the input rows of a run.
type RunStats struct {
	InputRows     int `json:"input_rows"`
	AcceptedRows  int `json:"accepted_rows"`
	RejectedRows  int `json:"rejected_rows"`
	RejectedDates int `json:"rejected_dates"`
	MissingFields int `json:"missing_fields"`
	FilteredRows  int `json:"filtered_rows"`
}

// AnalysisResult is the complete output of one analysis run. A result is
// never modified after it is returned.
type AnalysisResult struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Duration    time.Duration    `json:"duration_ns"`
	Core        CoreMetrics      `json:"core_metrics"`
	Inventory   InventoryMetrics `json:"inventory_metrics"`
	Products    ProductData      `json:"product_data"`
	Stats       RunStats         `json:"stats"`
	Filter      FilterCriteria   `json:"filter"`
	Business    BusinessConfig   `json:"business"`
}
