package analytics

import (
	"sort"
	"strings"
	"time"

	"retailpulse/pkg/contracts/domain"
)

// Filter applies the criteria to txs and preserves input order. The start
// date is inclusive; the end date includes its whole day. Category and
// product membership ignore case and surrounding whitespace.
//
// When criteria are active and nothing survives, Filter returns
// ErrEmptyAfterFilter. An empty input with no criteria is not an error.
func Filter(txs []domain.Transaction, criteria domain.FilterCriteria) ([]domain.Transaction, error) {
	if criteria.IsEmpty() {
		return txs, nil
	}

	var start, endExclusive time.Time
	hasStart, hasEnd := criteria.StartDate != nil, criteria.EndDate != nil
	if hasStart {
		start = *criteria.StartDate
	}
	if hasEnd {
		endExclusive = dayStart(*criteria.EndDate).AddDate(0, 0, 1)
	}
	categories := toSet(criteria.Categories)
	products := toSet(criteria.Products)

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if hasStart && tx.OrderDate.Before(start) {
			continue
		}
		if hasEnd && !tx.OrderDate.Before(endExclusive) {
			continue
		}
		if categories != nil && !categories[foldKey(tx.Category)] {
			continue
		}
		if products != nil && !products[foldKey(tx.Product)] {
			continue
		}
		out = append(out, tx)
	}

	if len(out) == 0 {
		return nil, ErrEmptyAfterFilter
	}
	return out, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[foldKey(v)] = true
	}
	return set
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Options lists the distinct categories and products of txs, sorted, with
// the earliest and latest order dates.
func Options(txs []domain.Transaction) domain.FilterOptions {
	cats := make(map[string]struct{})
	prods := make(map[string]struct{})
	var minDate, maxDate time.Time
	for i, tx := range txs {
		cats[tx.Category] = struct{}{}
		prods[tx.Product] = struct{}{}
		if i == 0 || tx.OrderDate.Before(minDate) {
			minDate = tx.OrderDate
		}
		if i == 0 || tx.OrderDate.After(maxDate) {
			maxDate = tx.OrderDate
		}
	}

	opts := domain.FilterOptions{
		Categories: sortedKeys(cats),
		Products:   sortedKeys(prods),
	}
	if len(txs) > 0 {
		opts.MinDate, opts.MaxDate = &minDate, &maxDate
	}
	return opts
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
