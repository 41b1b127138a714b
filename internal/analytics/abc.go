package analytics

import (
	"slices"

	"retailpulse/pkg/contracts/domain"
)

// Cumulative revenue share thresholds for the A and B bands.
const (
	ThresholdA = 0.80
	ThresholdB = 0.95
)

// Segment ranks products by revenue (ties keep input order) and assigns each
// the band reached by the cumulative revenue share at its rank. Bands are
// contiguous along the ranking. With zero total revenue every share is 0
// and every product lands in C.
func Segment(products []domain.ProductSummary) []domain.ABCEntry {
	ranked := slices.Clone(products)
	slices.SortStableFunc(ranked, func(a, b domain.ProductSummary) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		}
		return 0
	})

	var total float64
	for _, p := range ranked {
		total += p.Revenue
	}

	out := make([]domain.ABCEntry, len(ranked))
	var cumulative float64
	for i, p := range ranked {
		cumulative += p.Revenue
		var share float64
		if total > 0 {
			share = cumulative / total
		}
		out[i] = domain.ABCEntry{
			ProductSummary:    p,
			CumulativeRevenue: cumulative,
			CumulativeShare:   share,
			Segment:           segmentFor(share, total),
		}
	}
	return out
}

func segmentFor(share, total float64) domain.Segment {
	switch {
	case total <= 0:
		return domain.SegmentC
	case share <= ThresholdA:
		return domain.SegmentA
	case share <= ThresholdB:
		return domain.SegmentB
	}
	return domain.SegmentC
}
