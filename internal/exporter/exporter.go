package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"retailpulse/internal/analytics"
	"retailpulse/internal/files"
	"retailpulse/internal/infrastructure"
	"retailpulse/pkg/contracts/domain"
)

// Exporter writes table views into the export directory.
type Exporter struct {
	files   *files.Manager
	metrics *infrastructure.AppMetrics
	logger  *slog.Logger
}

// New creates an exporter. metrics may be nil.
func New(fm *files.Manager, logger *slog.Logger, metrics *infrastructure.AppMetrics) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		files:   fm,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "exporter")),
	}
}

// Write encodes one view as format onto w. Workbooks also carry the
// Summary sheet of result.
func Write(w io.Writer, format Format, result *domain.AnalysisResult, view analytics.TableView) error {
	switch format {
	case FormatCSV:
		return WriteTableCSV(w, view)
	case FormatXLSX:
		return WriteWorkbook(w, result, view)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// Stream writes one view to w and counts the export.
func (e *Exporter) Stream(ctx context.Context, w io.Writer, format Format, result *domain.AnalysisResult, view analytics.TableView) error {
	if err := Write(w, format, result, view); err != nil {
		return err
	}
	e.metrics.RecordExport(ctx, string(format))
	return nil
}

// ExportAll writes every view to the export directory and returns the
// paths written. CSV produces one file per view, written concurrently;
// XLSX produces a single workbook.
func (e *Exporter) ExportAll(ctx context.Context, result *domain.AnalysisResult, views []analytics.TableView, format Format) ([]string, error) {
	if len(views) == 0 {
		return nil, fmt.Errorf("no tables to export")
	}

	if format == FormatXLSX {
		path, err := e.files.WriteExport(WorkbookFileName(result.RunID), func(w io.Writer) error {
			return WriteWorkbook(w, result, views...)
		})
		if err != nil {
			return nil, err
		}
		e.metrics.RecordExport(ctx, string(format))
		e.logger.InfoContext(ctx, "workbook exported",
			slog.String("path", path),
			slog.Int("sheets", len(views)+1))
		return []string{path}, nil
	}

	paths := make([]string, len(views))
	g, gctx := errgroup.WithContext(ctx)
	for i, view := range views {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := e.files.WriteExport(TableFileName(view.Table, format), func(w io.Writer) error {
				return WriteTableCSV(w, view)
			})
			if err != nil {
				return fmt.Errorf("export %s: %w", view.Table, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for range views {
		e.metrics.RecordExport(ctx, string(format))
	}
	e.logger.InfoContext(ctx, "tables exported",
		slog.Int("files", len(paths)),
		slog.String("format", string(format)))
	return paths, nil
}
