package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpulse/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorder struct {
	events []StageEvent
}

func (r *recorder) OnStage(_ context.Context, ev StageEvent) {
	r.events = append(r.events, ev)
}

func TestPipelineScenario(t *testing.T) {
	rec := &recorder{}
	p := NewPipeline(quietLogger(),
		WithObserver(rec),
		WithIDGenerator(func() string { return "run-1" }))

	res, err := p.Run(context.Background(), []domain.RawRow{fullRow()}, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 100.0, res.Core.TotalRevenue)
	assert.Equal(t, 60.0, res.Core.TotalProfit)
	assert.InDelta(t, 0.60, res.Core.ProfitMargin, 1e-12)
	require.Len(t, res.Products.AllProducts, 1)
	assert.True(t, res.Products.AllProducts[0].IsLowStock)
	assert.Len(t, res.Products.ReorderAlerts, 1)
	assert.Equal(t, domain.RunStats{InputRows: 1, AcceptedRows: 1, FilteredRows: 1}, res.Stats)

	require.Len(t, rec.events, 2*len(Stages))
	for i, stage := range Stages {
		assert.Equal(t, stage, rec.events[2*i].Stage)
		assert.Equal(t, StageStarted, rec.events[2*i].Status)
		assert.Equal(t, StageCompleted, rec.events[2*i+1].Status)
		assert.Equal(t, i+1, rec.events[2*i].Index)
		assert.Equal(t, len(Stages), rec.events[2*i].Total)
	}
}

func TestPipelineCountsRejectedRows(t *testing.T) {
	bad := fullRow()
	bad["OrderDate"] = "whenever"
	rows := make([]domain.RawRow, 0, 12)
	for i := 0; i < 11; i++ {
		rows = append(rows, fullRow())
	}
	// Past the validation sample, so only normalization sees it.
	rows = append(rows, bad)

	res, err := NewPipeline(quietLogger()).Run(context.Background(), rows, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)
	assert.Equal(t, 12, res.Stats.InputRows)
	assert.Equal(t, 11, res.Stats.AcceptedRows)
	assert.Equal(t, 1, res.Stats.RejectedRows)
	assert.Equal(t, 1, res.Stats.RejectedDates)
}

func TestPipelineStructureFailureStopsEarly(t *testing.T) {
	row := fullRow()
	delete(row, "Cost")
	rec := &recorder{}

	res, err := NewPipeline(quietLogger(), WithObserver(rec)).
		Run(context.Background(), []domain.RawRow{row}, domain.FilterCriteria{}, domain.DefaultBusinessConfig())

	assert.Nil(t, res)
	var se *StructureError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Problems[0], "Cost")
	assert.True(t, IsUserError(err))

	require.Len(t, rec.events, 2)
	assert.Equal(t, StageFailed, rec.events[1].Status)
	assert.Equal(t, StageValidate, rec.events[1].Stage)
}

func TestPipelineEmptyAfterFilter(t *testing.T) {
	_, err := NewPipeline(quietLogger()).Run(context.Background(),
		[]domain.RawRow{fullRow()},
		domain.FilterCriteria{Categories: []string{"None"}},
		domain.DefaultBusinessConfig())
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)
	assert.True(t, IsUserError(err))
}

func TestPipelineRunsToCompletionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	stop := ObserverFunc(func(_ context.Context, ev StageEvent) {
		if ev.Stage == StageNormalize && ev.Status == StageCompleted {
			cancel()
		}
	})

	res, err := NewPipeline(quietLogger(), WithObserver(stop), WithObserver(rec)).
		Run(ctx, []domain.RawRow{fullRow()}, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Core.TotalRevenue)
	assert.Len(t, rec.events, 2*len(Stages))
	assert.Error(t, ctx.Err())
}

func TestPipelineUsesClock(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	res, err := NewPipeline(quietLogger(), WithClock(func() time.Time { return fixed })).
		Run(context.Background(), []domain.RawRow{fullRow()}, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)
	assert.Equal(t, fixed, res.GeneratedAt)
	assert.Zero(t, res.Duration)
}

func TestPipelineSampleDataset(t *testing.T) {
	rows := GenerateSample(SampleOptions{Rows: 2000, Seed: 9})
	res, err := NewPipeline(quietLogger()).Run(context.Background(), rows, domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)

	assert.Equal(t, 2000, res.Stats.AcceptedRows)
	assert.Equal(t, 50, res.Inventory.TotalProducts)
	assert.Len(t, res.Core.CategorySales, 5)
	assert.InDelta(t, res.Core.TotalRevenue-res.Core.TotalCost, res.Core.TotalProfit, 1e-9)
	assert.Greater(t, res.Inventory.InventoryTurnover, 0.0)

	var sum float64
	for _, v := range res.Core.MonthlySales {
		sum += v
	}
	assert.InDelta(t, res.Core.TotalRevenue, sum, 1e-6)
}
