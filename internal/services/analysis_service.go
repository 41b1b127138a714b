package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"retailpulse/internal/analytics"
	"retailpulse/internal/config"
	"retailpulse/internal/dataprocessing"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/infrastructure"
	"retailpulse/pkg/contracts/domain"
	"retailpulse/pkg/contracts/events"
)

// Dataset sources, reported in events and metrics.
const (
	SourceUpload = "upload"
	SourceFile   = "file"
	SourceSample = "sample"
	SourceSheets = "sheets"
	SourceRows   = "rows"
)

// MaxSampleRows caps the size of a generated sample dataset.
const MaxSampleRows = 200000

// Notifier is told about new datasets and finished runs.
type Notifier interface {
	DatasetLoaded(ctx context.Context, ev events.DatasetLoaded)
	Completed(ctx context.Context, r *domain.AnalysisResult)
	Failed(ctx context.Context, err error)
}

type nopNotifier struct{}

func (nopNotifier) DatasetLoaded(context.Context, events.DatasetLoaded) {}
func (nopNotifier) Completed(context.Context, *domain.AnalysisResult)   {}
func (nopNotifier) Failed(context.Context, error)                       {}

// Dataset is the active set of raw rows. Rows is never modified after
// the dataset is installed.
type Dataset struct {
	Source   string
	Name     string
	Rows     []domain.RawRow
	LoadedAt time.Time
	Options  domain.FilterOptions
}

// DatasetSummary describes the active dataset without its rows.
type DatasetSummary struct {
	Source   string                `json:"source"`
	Name     string                `json:"name,omitempty"`
	Rows     int                   `json:"rows"`
	Columns  []string              `json:"columns"`
	LoadedAt time.Time             `json:"loaded_at"`
	Options  domain.FilterOptions  `json:"options"`
	Filter   domain.FilterCriteria `json:"filter"`
	Business domain.BusinessConfig `json:"business"`
}

// Guide is the KPI reference and the list of required input columns.
type Guide struct {
	KPIs    []analytics.KPIDefinition `json:"kpis"`
	Columns []analytics.ColumnGuide   `json:"required_columns"`
	Tables  []analytics.TableDef      `json:"tables"`
}

// AnalyzeInput replaces the active filter before a run. A nil store
// constant keeps its current value.
type AnalyzeInput struct {
	Filter      domain.FilterCriteria
	SellingArea *float64 `validate:"omitnil,gte=0"`
	Traffic     *float64 `validate:"omitnil,gte=0"`
}

// TableQuery asks for a sorted table. An empty Sort keeps the current
// order; a Sort without Dir toggles like a header click.
type TableQuery struct {
	Table analytics.TableID
	Sort  string
	Dir   string
}

// SheetsFactory opens a Google Sheets client on first use.
type SheetsFactory func(ctx context.Context) (dataprocessing.ValuesGetter, error)

// AnalysisDeps wires an AnalysisService. Files, Discovery and Exporter are
// required; everything else has a working default.
type AnalysisDeps struct {
	Pipeline  *analytics.Pipeline
	Files     *files.Manager
	Discovery *files.Discovery
	Exporter  *exporter.Exporter
	Notifier  Notifier
	Metrics   *infrastructure.AppMetrics
	Tracer    trace.Tracer
	Sheets    SheetsFactory
	Analysis  config.AnalysisConfig
	SheetsCfg config.SheetsConfig
	Logger    *slog.Logger
}

// AnalysisService owns the active dataset, the filter and store constants
// of the next run, and the latest result. Only one run executes at a time.
type AnalysisService struct {
	pipeline  *analytics.Pipeline
	files     *files.Manager
	discovery *files.Discovery
	exporter  *exporter.Exporter
	notifier  Notifier
	metrics   *infrastructure.AppMetrics
	tracer    trace.Tracer
	validate  *validator.Validate
	cfg       config.AnalysisConfig
	logger    *slog.Logger

	sheetsMu    sync.Mutex
	sheets      dataprocessing.ValuesGetter
	newSheets   SheetsFactory
	sheetsRange string

	runMu sync.Mutex

	mu       sync.RWMutex
	dataset  *Dataset
	filter   domain.FilterCriteria
	business domain.BusinessConfig
	sorts    map[analytics.TableID]analytics.SortSpec

	result atomic.Pointer[domain.AnalysisResult]
}

// NewAnalysisService creates the service from deps.
func NewAnalysisService(deps AnalysisDeps) *AnalysisService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalysisService{
		pipeline:    deps.Pipeline,
		files:       deps.Files,
		discovery:   deps.Discovery,
		exporter:    deps.Exporter,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		tracer:      deps.Tracer,
		validate:    validator.New(),
		cfg:         deps.Analysis,
		logger:      logger.With(slog.String("component", "analysis_service")),
		newSheets:   deps.Sheets,
		sheetsRange: deps.SheetsCfg.DefaultRange,
		sorts:       make(map[analytics.TableID]analytics.SortSpec),
	}
	if s.pipeline == nil {
		s.pipeline = analytics.NewPipeline(logger)
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if s.newSheets == nil {
		credentials := deps.SheetsCfg.CredentialsFile
		s.newSheets = func(ctx context.Context) (dataprocessing.ValuesGetter, error) {
			return dataprocessing.NewSheetsClient(ctx, credentials)
		}
	}
	if s.sheetsRange == "" {
		s.sheetsRange = dataprocessing.DefaultSheetsRange
	}
	s.business = s.defaultBusiness()
	return s
}

func (s *AnalysisService) defaultBusiness() domain.BusinessConfig {
	if s.cfg.SellingArea == 0 && s.cfg.Traffic == 0 {
		return domain.DefaultBusinessConfig()
	}
	return domain.BusinessConfig{SellingArea: s.cfg.SellingArea, Traffic: s.cfg.Traffic}
}

// LoadRows installs rows as the active dataset and runs the analysis with
// no filter.
func (s *AnalysisService) LoadRows(ctx context.Context, source, name string, rows []domain.RawRow) (*domain.AnalysisResult, error) {
	return s.load(ctx, &Dataset{Source: source, Name: name, Rows: rows})
}

// Upload stores an uploaded file in the data directory and loads it.
func (s *AnalysisService) Upload(ctx context.Context, name string, r io.Reader) (*domain.AnalysisResult, error) {
	info, err := s.files.SaveUpload(name, r)
	if err != nil {
		return nil, err
	}
	rows, err := s.files.ReadDataset(info.Path)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, &Dataset{Source: SourceUpload, Name: info.Name, Rows: rows})
}

// LoadFile loads a dataset already present in the data directory.
func (s *AnalysisService) LoadFile(ctx context.Context, name string) (*domain.AnalysisResult, error) {
	info, err := s.discovery.Find(name)
	if err != nil {
		return nil, err
	}
	rows, err := s.files.ReadDataset(info.Path)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, &Dataset{Source: SourceFile, Name: info.Name, Rows: rows})
}

// LoadLatest loads the newest dataset in the data directory, if any.
func (s *AnalysisService) LoadLatest(ctx context.Context) (*domain.AnalysisResult, error) {
	found, err := s.discovery.FindDatasets()
	if err != nil {
		return nil, err
	}
	latest, ok := files.GetLatestFile(found)
	if !ok {
		return nil, apierrors.NewNotFoundError("dataset")
	}
	return s.LoadFile(ctx, latest.Name)
}

// LoadSample generates a synthetic dataset of n rows and loads it. A
// non-positive n uses the configured sample size.
func (s *AnalysisService) LoadSample(ctx context.Context, n int) (*domain.AnalysisResult, error) {
	if n <= 0 {
		n = s.cfg.SampleRows
	}
	if n > MaxSampleRows {
		return nil, apierrors.NewAppValidationError(
			fmt.Sprintf("sample size %d exceeds the maximum of %d rows", n, MaxSampleRows))
	}
	rows := analytics.GenerateSample(analytics.SampleOptions{Rows: n, Seed: s.cfg.SampleSeed})
	return s.load(ctx, &Dataset{Source: SourceSample, Name: "sample", Rows: rows})
}

// LoadSheet reads a Google Sheets range and loads it. ref is a spreadsheet
// id or URL; an empty readRange uses the configured default.
func (s *AnalysisService) LoadSheet(ctx context.Context, ref, readRange string) (*domain.AnalysisResult, error) {
	if readRange == "" {
		readRange = s.sheetsRange
	}
	getter, err := s.sheetsClient(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := dataprocessing.ReadSheet(ctx, getter, ref, readRange)
	if err != nil {
		return nil, err
	}
	id, _ := dataprocessing.ParseSpreadsheetID(ref)
	return s.load(ctx, &Dataset{Source: SourceSheets, Name: id, Rows: rows})
}

func (s *AnalysisService) sheetsClient(ctx context.Context) (dataprocessing.ValuesGetter, error) {
	s.sheetsMu.Lock()
	defer s.sheetsMu.Unlock()
	if s.sheets != nil {
		return s.sheets, nil
	}
	getter, err := s.newSheets(ctx)
	if err != nil {
		return nil, apierrors.NewSourceError("google sheets is not available", err)
	}
	s.sheets = getter
	return getter, nil
}

// load validates ds, installs it with a fresh filter and sort state, and
// runs the analysis. A dataset that fails validation leaves the current
// one in place.
func (s *AnalysisService) load(ctx context.Context, ds *Dataset) (*domain.AnalysisResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrAnalysisRunning
	}
	defer s.runMu.Unlock()

	if err := analytics.ValidateStructure(ds.Rows); err != nil {
		s.logger.WarnContext(ctx, "dataset rejected",
			slog.String("source", ds.Source),
			slog.String("name", ds.Name),
			slog.String("error", err.Error()))
		return nil, err
	}
	txs, _ := analytics.NormalizeAll(ds.Rows)
	ds.Options = analytics.Options(txs)
	ds.LoadedAt = time.Now().UTC()

	s.mu.Lock()
	s.dataset = ds
	s.filter = domain.FilterCriteria{}
	clear(s.sorts)
	business := s.business
	s.mu.Unlock()
	s.result.Store(nil)

	s.metrics.RecordDatasetLoad(ctx, ds.Source, len(ds.Rows))
	s.notifier.DatasetLoaded(ctx, events.DatasetLoaded{Source: ds.Source, Name: ds.Name, Rows: len(ds.Rows)})
	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", ds.Source),
		slog.String("name", ds.Name),
		slog.Int("rows", len(ds.Rows)),
		slog.Int("categories", len(ds.Options.Categories)),
		slog.Int("products", len(ds.Options.Products)))

	return s.run(ctx, ds.Rows, domain.FilterCriteria{}, business)
}

// Analyze replaces the filter, updates the given store constants and runs
// the analysis on the active dataset.
func (s *AnalysisService) Analyze(ctx context.Context, in AnalyzeInput) (*domain.AnalysisResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apierrors.NewAppValidationError("selling area and traffic must not be negative")
	}
	if !s.runMu.TryLock() {
		return nil, ErrAnalysisRunning
	}
	defer s.runMu.Unlock()

	s.mu.Lock()
	if s.dataset == nil {
		s.mu.Unlock()
		return nil, ErrNoDataset
	}
	s.filter = in.Filter
	if in.SellingArea != nil {
		s.business.SellingArea = *in.SellingArea
	}
	if in.Traffic != nil {
		s.business.Traffic = *in.Traffic
	}
	rows, filter, business := s.dataset.Rows, s.filter, s.business
	s.mu.Unlock()

	return s.run(ctx, rows, filter, business)
}

// ClearFilters drops every filter, restores the default store constants
// and reruns the analysis.
func (s *AnalysisService) ClearFilters(ctx context.Context) (*domain.AnalysisResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrAnalysisRunning
	}
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.filter = domain.FilterCriteria{}
	s.business = s.defaultBusiness()
	if s.dataset == nil {
		s.mu.Unlock()
		return nil, ErrNoDataset
	}
	rows, business := s.dataset.Rows, s.business
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "filters cleared")
	return s.run(ctx, rows, domain.FilterCriteria{}, business)
}

// run executes the pipeline. The caller holds runMu. The run is detached
// from ctx cancellation so a dropped request never aborts it. A run that
// fails on its data clears the latest result.
func (s *AnalysisService) run(ctx context.Context, rows []domain.RawRow, filter domain.FilterCriteria, business domain.BusinessConfig) (*domain.AnalysisResult, error) {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "analysis.run", trace.WithAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Bool("filtered", !filter.IsEmpty()),
	))
	defer span.End()

	start := time.Now()
	result, err := s.pipeline.Run(ctx, rows, filter, business)
	s.metrics.RecordRun(ctx, result, time.Since(start), err)
	if err != nil {
		s.result.Store(nil)
		infrastructure.RecordError(ctx, err)
		s.notifier.Failed(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("run_id", result.RunID))
	s.result.Store(result)
	s.notifier.Completed(ctx, result)
	return result, nil
}

// Result returns the latest successful result.
func (s *AnalysisService) Result() (*domain.AnalysisResult, error) {
	if r := s.result.Load(); r != nil {
		return r, nil
	}
	return nil, ErrNoResult
}

// Options lists the filter values of the active dataset.
func (s *AnalysisService) Options() (domain.FilterOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return domain.FilterOptions{}, ErrNoDataset
	}
	return s.dataset.Options, nil
}

// Dataset summarizes the active dataset.
func (s *AnalysisService) Dataset() (DatasetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := s.dataset
	if ds == nil {
		return DatasetSummary{}, ErrNoDataset
	}
	var columns []string
	if len(ds.Rows) > 0 {
		columns = slices.Sorted(maps.Keys(ds.Rows[0]))
	}
	return DatasetSummary{
		Source:   ds.Source,
		Name:     ds.Name,
		Rows:     len(ds.Rows),
		Columns:  columns,
		LoadedAt: ds.LoadedAt,
		Options:  ds.Options,
		Filter:   s.filter,
		Business: s.business,
	}, nil
}

// Datasets lists the files in the data directory, newest first.
func (s *AnalysisService) Datasets() ([]files.FileInfo, error) {
	return s.discovery.FindDatasets()
}

// Table returns a sorted table of the latest result. The chosen order is
// remembered per table until the next dataset is loaded.
func (s *AnalysisService) Table(q TableQuery) (analytics.TableView, error) {
	result := s.result.Load()
	if result == nil {
		return analytics.TableView{}, ErrNoResult
	}
	return s.view(result, q)
}

func (s *AnalysisService) view(result *domain.AnalysisResult, q TableQuery) (analytics.TableView, error) {
	def, ok := analytics.LookupTable(q.Table)
	if !ok {
		return analytics.TableView{}, fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}

	s.mu.Lock()
	spec, has := s.sorts[q.Table]
	if q.Sort != "" {
		next, err := nextSort(def, spec, has, q)
		if err != nil {
			s.mu.Unlock()
			return analytics.TableView{}, err
		}
		spec, has = next, true
		s.sorts[q.Table] = spec
	}
	s.mu.Unlock()

	if !has {
		return analytics.View(result, q.Table, nil)
	}
	return analytics.View(result, q.Table, &spec)
}

func nextSort(def analytics.TableDef, current analytics.SortSpec, has bool, q TableQuery) (analytics.SortSpec, error) {
	if q.Dir == "" {
		if !has {
			current = def.Default
		}
		return def.NextSort(current, q.Sort)
	}
	dir, err := analytics.ParseDirection(q.Dir)
	if err != nil {
		return analytics.SortSpec{}, apierrors.ErrInvalidParameter.WithDetails(err.Error())
	}
	return def.Spec(q.Sort, dir)
}

// ExportTable writes one table of the latest result, in its current order,
// to w.
func (s *AnalysisService) ExportTable(ctx context.Context, w io.Writer, id analytics.TableID, format exporter.Format) error {
	result := s.result.Load()
	if result == nil {
		return ErrNoResult
	}
	view, err := s.view(result, TableQuery{Table: id})
	if err != nil {
		return err
	}
	return s.exporter.Stream(ctx, w, format, result, view)
}

// ExportAll writes every table of the latest result to the export
// directory and returns the paths written.
func (s *AnalysisService) ExportAll(ctx context.Context, format exporter.Format) ([]string, error) {
	result := s.result.Load()
	if result == nil {
		return nil, ErrNoResult
	}
	defs := analytics.Tables()
	views := make([]analytics.TableView, 0, len(defs))
	for _, d := range defs {
		v, err := s.view(result, TableQuery{Table: d.ID})
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return s.exporter.ExportAll(ctx, result, views, format)
}

// Guide returns the KPI reference.
func (s *AnalysisService) Guide() Guide {
	return Guide{
		KPIs:    analytics.KPIGuide(),
		Columns: analytics.RequiredColumns(),
		Tables:  analytics.Tables(),
	}
}

// HasDataset reports whether a dataset is loaded.
func (s *AnalysisService) HasDataset() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset != nil
}
