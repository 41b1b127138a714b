// Package analytics turns loosely structured retail rows into the
// financial, customer and inventory KPIs of one analysis run.
//
// # Pipeline
//
// A run is a plain sequence of pure stages. Each stage consumes the output of
// the previous one and nothing else:
//
//  1. Structure validation: every canonical field must be reachable through
//     one of its column aliases, and a sample of rows must carry parseable
//     order dates.
//  2. Normalization: each row is resolved and coerced into a
//     domain.Transaction. Rows with a missing critical field or an
//     unparseable date are dropped and counted.
//  3. Filtering: date range (end date inclusive), category and product
//     allow-lists.
//  4. Core metrics: revenue, profit, order and customer proxies, time and
//     category breakdowns.
//  5. Inventory: per-product aggregation and the inventory-wide KPIs.
//  6. Segmentation: ABC bands over revenue-ranked products.
//
// A run has no cancellation point. Once started it completes or fails on
// its data, so a caller never sees a half-built result.
//
// # Files
//
//   - schema.go: canonical fields, aliases, per-row resolution, structure checks
//   - dates.go: order date parsing (day-first fallback)
//   - coerce.go: parse-or-zero numeric coercion
//   - normalize.go: RawRow to Transaction
//   - filter.go: filter engine and filter options
//   - core_metrics.go, inventory.go, abc.go: aggregation stages
//   - sort.go, tables.go: sort engine and the re-sortable table views
//   - pipeline.go: stage orchestration and observers
//   - sample.go: synthetic dataset generator
//   - guide.go: KPI definitions and required columns
//
// # Usage
//
//	p := analytics.NewPipeline(logger)
//	result, err := p.Run(ctx, rows, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
//	if err != nil {
//	    var se *analytics.StructureError
//	    if errors.As(err, &se) {
//	        // se.Problems lists every missing column and bad sampled date
//	    }
//	}
//	view, err := analytics.View(result, analytics.TableABC, nil)
package analytics
