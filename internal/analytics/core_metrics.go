package analytics

import (
	"time"

	"retailpulse/pkg/contracts/domain"
)

// orderKey identifies an order. Transactions without an order id count as
// their own order, keyed by full timestamp and product.
func orderKey(tx domain.Transaction) string {
	if tx.OrderID != "" && tx.OrderID != domain.NoOrderID {
		return tx.OrderID
	}
	return tx.OrderDate.UTC().Format(time.RFC3339Nano) + "_" + tx.Product
}

// ComputeCoreMetrics makes a single pass over txs. Customers are proxied by
// order id: every distinct id is one customer, and all rows without an id
// share one bucket. Cost is summed per line; quantity does not enter here.
func ComputeCoreMetrics(txs []domain.Transaction, biz domain.BusinessConfig) domain.CoreMetrics {
	m := domain.CoreMetrics{
		MonthlySales:  make(map[string]float64),
		DailySales:    make(map[string]float64),
		CategorySales: make(map[string]float64),
	}

	orders := make(map[string]struct{})
	customers := make(map[string]float64)

	for _, tx := range txs {
		m.TotalRevenue += tx.Sales
		m.TotalCost += tx.Cost

		customers[tx.OrderID] += tx.Sales
		orders[orderKey(tx)] = struct{}{}

		day := tx.OrderDate.UTC().Format("2006-01-02")
		m.MonthlySales[day[:7]] += tx.Sales
		m.DailySales[day] += tx.Sales
		m.CategorySales[tx.Category] += tx.Sales
	}
	m.TotalProfit = m.TotalRevenue - m.TotalCost

	m.TotalOrders = len(orders)
	m.UniqueCustomers = len(customers)
	if m.TotalOrders > 0 {
		m.AvgOrderValue = m.TotalRevenue / float64(m.TotalOrders)
	}
	if m.TotalRevenue > 0 {
		m.ProfitMargin = m.TotalProfit / m.TotalRevenue
	}

	var customerRevenue float64
	for _, rev := range customers {
		customerRevenue += rev
	}
	if m.UniqueCustomers > 0 {
		m.CLV = customerRevenue / float64(m.UniqueCustomers)
	}

	m.SalesPerArea = m.TotalRevenue / max(biz.SellingArea, 1)
	if m.TotalOrders > 0 && biz.Traffic > 0 {
		m.ConversionRate = float64(m.TotalOrders) / biz.Traffic
	}
	return m
}
