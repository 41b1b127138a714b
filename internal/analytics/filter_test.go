package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpulse/pkg/contracts/domain"
)

func mkTx(product, category string, d time.Time, sales, cost float64, qty, stock, rop int, orderID string) domain.Transaction {
	return domain.Transaction{
		Product: product, Category: category, OrderDate: d,
		Sales: sales, Cost: cost, Profit: sales - cost,
		Quantity: qty, StockLevel: stock, ReorderPoint: rop, OrderID: orderID,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func filterFixture() []domain.Transaction {
	return []domain.Transaction{
		mkTx("Lamp", "Furniture", date(2024, 1, 1), 10, 5, 1, 10, 1, "O1"),
		mkTx("Desk", "Furniture", date(2024, 1, 15), 20, 5, 1, 10, 1, "O2"),
		mkTx(" Book ", "Books ", date(2024, 1, 31).Add(23*time.Hour), 30, 5, 1, 10, 1, "O3"),
		mkTx("Lamp", "Furniture", date(2024, 2, 1), 40, 5, 1, 10, 1, "O4"),
	}
}

func TestFilter(t *testing.T) {
	txs := filterFixture()

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     []float64 // sales of survivors, in order
	}{
		{"no criteria", domain.FilterCriteria{}, []float64{10, 20, 30, 40}},
		{"start inclusive", domain.FilterCriteria{StartDate: ptr(date(2024, 1, 15))}, []float64{20, 30, 40}},
		{"end includes whole day", domain.FilterCriteria{EndDate: ptr(date(2024, 1, 31))}, []float64{10, 20, 30}},
		{"range", domain.FilterCriteria{StartDate: ptr(date(2024, 1, 2)), EndDate: ptr(date(2024, 1, 31))}, []float64{20, 30}},
		{"category", domain.FilterCriteria{Categories: []string{"Books"}}, []float64{30}},
		{"category trimmed on both sides", domain.FilterCriteria{Categories: []string{" Books  "}}, []float64{30}},
		{"product", domain.FilterCriteria{Products: []string{"Lamp"}}, []float64{10, 40}},
		{"product trimmed", domain.FilterCriteria{Products: []string{"Book"}}, []float64{30}},
		{"combined", domain.FilterCriteria{Categories: []string{"Furniture"}, Products: []string{"Lamp"}, EndDate: ptr(date(2024, 1, 31))}, []float64{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(txs, tt.criteria)
			require.NoError(t, err)
			sales := make([]float64, len(got))
			for i, tx := range got {
				sales[i] = tx.Sales
			}
			assert.Equal(t, tt.want, sales)
		})
	}
}

func TestFilterEndDateBoundary(t *testing.T) {
	end := date(2024, 3, 10)
	txs := []domain.Transaction{
		mkTx("On", "C", end, 1, 0, 1, 0, 0, "1"),
		mkTx("Next", "C", end.AddDate(0, 0, 1), 1, 0, 1, 0, 0, "2"),
	}

	got, err := Filter(txs, domain.FilterCriteria{EndDate: &end})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "On", got[0].Product)
}

func TestFilterEmptyResult(t *testing.T) {
	_, err := Filter(filterFixture(), domain.FilterCriteria{Products: []string{"Nothing"}})
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)

	got, err := Filter(nil, domain.FilterCriteria{})
	assert.NoError(t, err, "no criteria never signals an empty filter result")
	assert.Empty(t, got)
}

func TestFilterIdempotent(t *testing.T) {
	criteria := domain.FilterCriteria{
		StartDate:  ptr(date(2024, 1, 10)),
		Categories: []string{"Furniture", "Books"},
	}
	once, err := Filter(filterFixture(), criteria)
	require.NoError(t, err)
	twice, err := Filter(once, criteria)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestFilterIgnoresCase(t *testing.T) {
	txs := []domain.Transaction{
		mkTx("Widget", "Tools", date(2024, 1, 1), 10, 5, 1, 10, 1, "O1"),
		mkTx("Gadget", "Toys", date(2024, 1, 2), 20, 5, 1, 10, 1, "O2"),
	}
	criteria := domain.FilterCriteria{
		Categories: []string{"tools"},
		Products:   []string{"WIDGET "},
	}

	once, err := Filter(txs, criteria)
	require.NoError(t, err)
	require.Len(t, once, 1)
	assert.Equal(t, "Widget", once[0].Product)

	twice, err := Filter(once, criteria)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestOptions(t *testing.T) {
	opts := Options(filterFixture())
	assert.Equal(t, []string{"Books ", "Furniture"}, opts.Categories)
	assert.Equal(t, []string{" Book ", "Desk", "Lamp"}, opts.Products)
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)
	assert.Equal(t, date(2024, 1, 1), *opts.MinDate)
	assert.Equal(t, date(2024, 2, 1), *opts.MaxDate)

	empty := Options(nil)
	assert.Empty(t, empty.Categories)
	assert.Nil(t, empty.MinDate)
}
