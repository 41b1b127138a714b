package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"retailpulse/internal/analytics"
	"retailpulse/pkg/contracts/domain"
)

// Run outcomes used as the "status" attribute.
const (
	StatusSuccess   = "success"
	StatusUserError = "user_error"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

// AppMetrics holds the application instruments.
type AppMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Analysis metrics
	AnalysisRunsTotal   metric.Int64Counter
	AnalysisRunDuration metric.Float64Histogram
	AnalysisRows        metric.Int64Counter
	StageDuration       metric.Float64Histogram

	// Dataset and export metrics
	DatasetLoadsTotal metric.Int64Counter
	ExportsTotal      metric.Int64Counter
}

// NewAppMetrics creates every instrument on meter.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var (
		m    AppMetrics
		errs []error
	)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration_seconds", "HTTP request duration")
	active, err := meter.Int64UpDownCounter("http_active_requests", metric.WithDescription("HTTP requests in flight"))
	errs = append(errs, err)
	m.HTTPActiveRequests = active

	m.AnalysisRunsTotal = counter("analysis_runs_total", "Analysis runs by outcome")
	m.AnalysisRunDuration = seconds("analysis_run_duration_seconds", "Analysis run duration")
	m.AnalysisRows = counter("analysis_rows_total", "Rows seen by the normalizer, by outcome")
	m.StageDuration = seconds("analysis_stage_duration_seconds", "Duration of each analysis stage")

	m.DatasetLoadsTotal = counter("dataset_loads_total", "Datasets loaded, by source")
	m.ExportsTotal = counter("exports_total", "Table exports, by format")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RunStatus classifies the error of a run for the status attribute.
func RunStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	case analytics.IsUserError(err):
		return StatusUserError
	}
	return StatusFailure
}

// RecordRun records one finished analysis run. result may be nil when the
// run failed.
func (m *AppMetrics) RecordRun(ctx context.Context, result *domain.AnalysisResult, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := attribute.String("status", RunStatus(err))
	m.AnalysisRunsTotal.Add(ctx, 1, metric.WithAttributes(status))
	m.AnalysisRunDuration.Record(ctx, d.Seconds(), metric.WithAttributes(status))
	if result == nil {
		return
	}
	m.AnalysisRows.Add(ctx, int64(result.Stats.AcceptedRows),
		metric.WithAttributes(attribute.String("outcome", "accepted")))
	m.AnalysisRows.Add(ctx, int64(result.Stats.RejectedRows),
		metric.WithAttributes(attribute.String("outcome", "rejected")))
}

// RecordDatasetLoad counts a dataset loaded from source.
func (m *AppMetrics) RecordDatasetLoad(ctx context.Context, source string, rows int) {
	if m == nil {
		return
	}
	m.DatasetLoadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("empty", rows == 0)))
}

// RecordExport counts an export of format.
func (m *AppMetrics) RecordExport(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// StageObserver turns pipeline stage events into stage duration samples
// and span events on the span carried by ctx.
type StageObserver struct {
	metrics *AppMetrics
}

// NewStageObserver returns an analytics.Observer backed by m.
func NewStageObserver(m *AppMetrics) *StageObserver {
	return &StageObserver{metrics: m}
}

// OnStage implements analytics.Observer.
func (o *StageObserver) OnStage(ctx context.Context, ev analytics.StageEvent) {
	if ev.Status == analytics.StageStarted {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("stage", string(ev.Stage)),
		attribute.String("status", string(ev.Status)),
	}
	if o.metrics != nil {
		o.metrics.StageDuration.Record(ctx, ev.Duration.Seconds(), metric.WithAttributes(attrs...))
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("analysis.stage", trace.WithAttributes(append(attrs,
		attribute.String("run_id", ev.RunID),
		attribute.Float64("duration_seconds", ev.Duration.Seconds()))...))
	if ev.Err != nil {
		span.RecordError(ev.Err)
	}
}
