package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"retailpulse/pkg/contracts/domain"
)

// Stage is one step of an analysis run.
type Stage string

const (
	StageValidate     Stage = "validate"
	StageNormalize    Stage = "normalize"
	StageFilter       Stage = "filter"
	StageCoreMetrics  Stage = "core_metrics"
	StageInventory    Stage = "inventory"
	StageSegmentation Stage = "segmentation"
)

// Stages lists the stages in execution order.
var Stages = []Stage{
	StageValidate,
	StageNormalize,
	StageFilter,
	StageCoreMetrics,
	StageInventory,
	StageSegmentation,
}

var stageMessages = map[Stage]string{
	StageValidate:     "Validating data structure",
	StageNormalize:    "Normalizing rows",
	StageFilter:       "Applying filters",
	StageCoreMetrics:  "Calculating core financial and customer metrics",
	StageInventory:    "Analyzing inventory and product performance",
	StageSegmentation: "Segmenting products by revenue",
}

// StageStatus is the state reported for a stage.
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageEvent is emitted when a stage starts, completes or fails.
type StageEvent struct {
	RunID    string
	Stage    Stage
	Index    int // 1-based
	Total    int
	Status   StageStatus
	Message  string
	Duration time.Duration
	Err      error
}

// Observer receives stage events synchronously, in order.
type Observer interface {
	OnStage(ctx context.Context, ev StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev StageEvent)

func (f ObserverFunc) OnStage(ctx context.Context, ev StageEvent) { f(ctx, ev) }

type multiObserver []Observer

func (m multiObserver) OnStage(ctx context.Context, ev StageEvent) {
	for _, o := range m {
		o.OnStage(ctx, ev)
	}
}

// Pipeline runs the analysis stages in sequence.
type Pipeline struct {
	logger    *slog.Logger
	observers multiObserver
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver adds an observer for stage events.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator replaces the run id generator.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// NewPipeline creates a pipeline.
func NewPipeline(logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		logger: logger.With(slog.String("component", "analytics")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// runState carries intermediate values between stages.
type runState struct {
	rows     []domain.RawRow
	filter   domain.FilterCriteria
	business domain.BusinessConfig

	txs      []domain.Transaction
	norm     NormalizeStats
	filtered []domain.Transaction
	core     domain.CoreMetrics
	inv      InventoryReport
	products domain.ProductData
}

// Run executes every stage over rows and returns a complete result. A run
// always runs to completion: ctx carries trace and logging values only and
// its cancellation is ignored. On error no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, rows []domain.RawRow, filter domain.FilterCriteria, business domain.BusinessConfig) (*domain.AnalysisResult, error) {
	runID := p.newID()
	started := p.now()
	logger := p.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "analysis run started",
		slog.Int("rows", len(rows)),
		slog.Bool("filtered", !filter.IsEmpty()))

	st := &runState{rows: rows, filter: filter, business: business}
	steps := []struct {
		stage Stage
		fn    func(*runState) error
	}{
		{StageValidate, stageValidate},
		{StageNormalize, stageNormalize},
		{StageFilter, stageFilter},
		{StageCoreMetrics, stageCore},
		{StageInventory, stageInventory},
		{StageSegmentation, stageSegmentation},
	}

	for i, step := range steps {
		ev := StageEvent{
			RunID:   runID,
			Stage:   step.stage,
			Index:   i + 1,
			Total:   len(steps),
			Message: stageMessages[step.stage],
		}
		ev.Status = StageStarted
		p.observers.OnStage(ctx, ev)

		t0 := p.now()
		err := step.fn(st)
		ev.Duration = p.now().Sub(t0)

		if err != nil {
			ev.Status, ev.Err = StageFailed, err
			p.observers.OnStage(ctx, ev)
			logger.ErrorContext(ctx, "analysis stage failed",
				slog.String("stage", string(step.stage)),
				slog.String("error", err.Error()))
			return nil, err
		}
		ev.Status = StageCompleted
		p.observers.OnStage(ctx, ev)
		logger.DebugContext(ctx, "analysis stage completed",
			slog.String("stage", string(step.stage)),
			slog.Duration("duration", ev.Duration))
	}

	result := &domain.AnalysisResult{
		RunID:       runID,
		GeneratedAt: started.UTC(),
		Duration:    p.now().Sub(started),
		Core:        st.core,
		Inventory:   st.inv.Metrics,
		Products:    st.products,
		Stats: domain.RunStats{
			InputRows:     st.norm.Input,
			AcceptedRows:  st.norm.Accepted,
			RejectedRows:  st.norm.Rejected(),
			RejectedDates: st.norm.BadDates,
			MissingFields: st.norm.MissingFields,
			FilteredRows:  len(st.filtered),
		},
		Filter:   filter,
		Business: business,
	}

	logger.InfoContext(ctx, "analysis run completed",
		slog.Int("accepted_rows", result.Stats.AcceptedRows),
		slog.Int("rejected_rows", result.Stats.RejectedRows),
		slog.Int("products", result.Inventory.TotalProducts),
		slog.Float64("total_revenue", result.Core.TotalRevenue),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func stageValidate(st *runState) error {
	return ValidateStructure(st.rows)
}

func stageNormalize(st *runState) error {
	st.txs, st.norm = NormalizeAll(st.rows)
	if len(st.txs) == 0 {
		return fmt.Errorf("%w: %d rows rejected", ErrNoValidRows, st.norm.Rejected())
	}
	return nil
}

func stageFilter(st *runState) error {
	filtered, err := Filter(st.txs, st.filter)
	if err != nil {
		return err
	}
	st.filtered = filtered
	return nil
}

func stageCore(st *runState) error {
	st.core = ComputeCoreMetrics(st.filtered, st.business)
	return nil
}

func stageInventory(st *runState) error {
	st.inv = ComputeInventory(st.filtered, st.core.TotalProfit)
	return nil
}

func stageSegmentation(st *runState) error {
	st.products = BuildProductData(st.inv.Products)
	return nil
}

// IsUserError reports whether err comes from the input data rather than
// from the system.
func IsUserError(err error) bool {
	var se *StructureError
	return errors.As(err, &se) || errors.Is(err, ErrEmptyAfterFilter) || errors.Is(err, ErrNoValidRows)
}
