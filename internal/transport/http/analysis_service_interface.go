package http

import (
	"context"
	"io"

	"retailpulse/internal/analytics"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/services"
	"retailpulse/pkg/contracts/domain"
)

// AnalysisService is the part of services.AnalysisService the handlers use.
type AnalysisService interface {
	LoadRows(ctx context.Context, source, name string, rows []domain.RawRow) (*domain.AnalysisResult, error)
	Upload(ctx context.Context, name string, r io.Reader) (*domain.AnalysisResult, error)
	LoadFile(ctx context.Context, name string) (*domain.AnalysisResult, error)
	LoadSample(ctx context.Context, n int) (*domain.AnalysisResult, error)
	LoadSheet(ctx context.Context, ref, readRange string) (*domain.AnalysisResult, error)

	Analyze(ctx context.Context, in services.AnalyzeInput) (*domain.AnalysisResult, error)
	ClearFilters(ctx context.Context) (*domain.AnalysisResult, error)
	Result() (*domain.AnalysisResult, error)
	Options() (domain.FilterOptions, error)
	Dataset() (services.DatasetSummary, error)
	Datasets() ([]files.FileInfo, error)

	Table(q services.TableQuery) (analytics.TableView, error)
	ExportTable(ctx context.Context, w io.Writer, id analytics.TableID, format exporter.Format) error
	ExportAll(ctx context.Context, format exporter.Format) ([]string, error)
	Guide() services.Guide
}

var _ AnalysisService = (*services.AnalysisService)(nil)
