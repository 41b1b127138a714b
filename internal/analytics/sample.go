package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"retailpulse/pkg/contracts/domain"
)

// DefaultSampleRows is the size of the built-in demo dataset.
const DefaultSampleRows = 10000

type sampleCategory struct {
	name      string
	basePrice float64
	products  []string
}

var sampleCatalog = []sampleCategory{
	{"Electronics", 500, []string{"Laptop Pro", "Smartphone X", "Wireless Earbuds", "Smart Watch", "4K Monitor", "Gaming Console", "Portable Speaker", "Drone", "E-Reader", "External SSD"}},
	{"Apparel", 40, []string{"T-Shirt (S)", "Jeans (M)", "Winter Jacket", "Running Shoes", "Formal Dress", "Baseball Cap", "Socks (Pack)", "Sunglasses", "Casual Hoodie", "Leather Belt"}},
	{"Home Goods", 80, []string{"Coffee Maker", "Blender", "Smart Bulb (4-Pack)", "Vacuum Cleaner", "Frying Pan Set", "Area Rug", "Wall Clock", "Digital Scale", "Glassware Set", "Bedding Set"}},
	{"Furniture", 450, []string{"Desk Chair", "Standing Desk", "Side Table", "Bookshelf", "Sofa Bed", "Dining Table", "Outdoor Patio Set", "Lamp", "TV Stand", "Storage Ottoman"}},
	{"Books", 20, []string{"Bestseller Novel", "Cookbook", "Self-Help Guide", "Sci-Fi Classic", "Art History Book", "Business Strategy", "Childrens Book", "Fantasy Series", "Poetry Anthology", "Travel Guide"}},
}

// SampleOptions configures GenerateSample. Zero values pick the defaults:
// DefaultSampleRows rows between 2023-10-01 and 2024-10-01.
type SampleOptions struct {
	Rows  int
	Seed  uint64
	Start time.Time
	End   time.Time
}

// GenerateSample builds a synthetic retail dataset in raw row form, with
// dates written day-first (DD/MM/YYYY) and rows sorted by date. The same
// seed always yields the same rows.
func GenerateSample(opts SampleOptions) []domain.RawRow {
	if opts.Rows <= 0 {
		opts.Rows = DefaultSampleRows
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.End.IsZero() || !opts.End.After(opts.Start) {
		opts.End = opts.Start.AddDate(1, 0, 0)
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	span := opts.End.Sub(opts.Start).Milliseconds()

	type stock struct{ level, reorderPoint int }
	stocks := make(map[string]stock)

	type sampleRow struct {
		date time.Time
		row  domain.RawRow
	}
	rows := make([]sampleRow, 0, opts.Rows)
	orderID := 10000

	for i := 0; i < opts.Rows; i++ {
		cat := sampleCatalog[rng.IntN(len(sampleCatalog))]
		product := cat.products[rng.IntN(len(cat.products))]
		date := opts.Start.Add(time.Duration(rng.Int64N(span)) * time.Millisecond)

		sales := cat.basePrice * (1 + (rng.Float64()*0.4 - 0.2))
		cost := sales * (0.5 + rng.Float64()*0.25)
		quantity := rng.IntN(3) + 1

		s, ok := stocks[product]
		if !ok {
			s = stock{
				level:        200 + rng.IntN(100),
				reorderPoint: int(math.Floor(cat.basePrice/10)) + 5,
			}
			// A product first seen on a multiple of 2000 starts low.
			if i%2000 == 0 {
				s.level = 5
			}
			stocks[product] = s
		}

		if rng.Float64() < 0.3 {
			orderID++
		}

		rows = append(rows, sampleRow{
			date: date,
			row: domain.RawRow{
				"Product":      product,
				"Category":     cat.name,
				"OrderDate":    date.Format("02/01/2006"),
				"Sales":        round2(sales),
				"Cost":         round2(cost),
				"StockLevel":   s.level,
				"ReorderPoint": s.reorderPoint,
				"Quantity":     quantity,
				"OrderID":      fmt.Sprintf("ORD%d", orderID),
			},
		})
	}

	// Rows compare by calendar day, as written.
	slices.SortStableFunc(rows, func(a, b sampleRow) int {
		return dayStart(a.date).Compare(dayStart(b.date))
	})

	out := make([]domain.RawRow, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
