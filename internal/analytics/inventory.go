package analytics

import (
	"retailpulse/pkg/contracts/domain"
)

// topN is the length of the top-by-revenue and top-by-profit lists.
const topN = 10

// InventoryReport is the output of the product aggregation stage.
type InventoryReport struct {
	Metrics  domain.InventoryMetrics
	Products []domain.ProductSummary
}

// ComputeInventory groups txs by product in first-seen order. Revenue,
// profit, quantity and cost of goods accumulate; stock level, reorder point
// and category take the last value seen. That is an approximation of a
// stock snapshot, valid only as far as input order follows time.
//
// totalProfit comes from the core metrics stage and feeds GMROI.
func ComputeInventory(txs []domain.Transaction, totalProfit float64) InventoryReport {
	index := make(map[string]int)
	var products []domain.ProductSummary
	var metrics domain.InventoryMetrics

	for _, tx := range txs {
		cogs := tx.Cost * float64(tx.Quantity)
		metrics.TotalCOGS += cogs

		i, ok := index[tx.Product]
		if !ok {
			i = len(products)
			index[tx.Product] = i
			products = append(products, domain.ProductSummary{Product: tx.Product})
		}
		p := &products[i]
		p.Revenue += tx.Sales
		p.Profit += tx.Profit
		p.QuantitySold += tx.Quantity
		p.TotalCOGS += cogs
		p.StockLevel = tx.StockLevel
		p.ReorderPoint = tx.ReorderPoint
		p.Category = tx.Category
	}

	var sellThroughSum float64
	for i := range products {
		p := &products[i]
		if p.Revenue > 0 {
			p.Margin = p.Profit / p.Revenue
		}
		if p.QuantitySold > 0 {
			p.AvgUnitCost = p.TotalCOGS / float64(p.QuantitySold)
		}
		if available := p.QuantitySold + p.StockLevel; available > 0 {
			p.SellThroughRate = float64(p.QuantitySold) / float64(available)
		}
		p.IsLowStock = p.StockLevel < p.ReorderPoint

		metrics.EndingInventoryCost += float64(p.StockLevel) * p.AvgUnitCost
		metrics.TotalStockUnits += p.StockLevel
		if p.IsLowStock {
			metrics.LowStockCount++
		}
		sellThroughSum += p.SellThroughRate
	}

	metrics.TotalProducts = len(products)
	if metrics.EndingInventoryCost > 0 {
		metrics.InventoryTurnover = metrics.TotalCOGS / metrics.EndingInventoryCost
		metrics.GMROI = totalProfit / metrics.EndingInventoryCost
	}
	if len(products) > 0 {
		metrics.AvgSellThroughRate = sellThroughSum / float64(len(products))
	}

	return InventoryReport{Metrics: metrics, Products: products}
}

// BuildProductData derives the ranked lists from the canonical product list.
// Every list is a fresh copy.
func BuildProductData(products []domain.ProductSummary) domain.ProductData {
	byRevenue := Sort(products, SortSpec{Field: "Revenue", Kind: Numeric, Direction: Desc})
	byProfit := Sort(products, SortSpec{Field: "Profit", Kind: Numeric, Direction: Desc})

	return domain.ProductData{
		TopProductsByRevenue: head(byRevenue, topN),
		TopProductsByProfit:  head(byProfit, topN),
		ReorderAlerts:        ReorderAlerts(products),
		AllProducts:          append([]domain.ProductSummary(nil), products...),
		ABCProducts:          Segment(products),
	}
}

// ReorderAlerts returns low-stock products, lowest stock first.
func ReorderAlerts(products []domain.ProductSummary) []domain.ProductSummary {
	return Sort(lowStock(products), SortSpec{Field: "StockLevel", Kind: Numeric, Direction: Asc})
}

func lowStock(products []domain.ProductSummary) []domain.ProductSummary {
	out := make([]domain.ProductSummary, 0)
	for _, p := range products {
		if p.IsLowStock {
			out = append(out, p)
		}
	}
	return out
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n:n]
	}
	return items
}
