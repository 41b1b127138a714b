package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retailpulse/internal/analytics"
	"retailpulse/internal/config"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/files"
	"retailpulse/internal/shared/testutil"
	"retailpulse/pkg/contracts/domain"
)

// defaultViews renders every table of result in its default order.
func defaultViews(result *domain.AnalysisResult) ([]analytics.TableView, error) {
	defs := analytics.Tables()
	views := make([]analytics.TableView, 0, len(defs))
	for _, d := range defs {
		v, err := analytics.View(result, d.ID, nil)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func testResult(t *testing.T) *domain.AnalysisResult {
	t.Helper()
	p := analytics.NewPipeline(nil,
		analytics.WithIDGenerator(func() string { return "0123456789abcdef" }),
		analytics.WithClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }))
	result, err := p.Run(context.Background(), testutil.RetailRows(), domain.FilterCriteria{}, domain.DefaultBusinessConfig())
	require.NoError(t, err)
	return result
}

func testExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	fm := files.NewManager(config.PathsConfig{DataDir: dir, ExportDir: filepath.Join(dir, "exports")}, nil, logger)
	return New(fm, logger, nil), filepath.Join(dir, "exports")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, apierrors.ErrUnsupportedFormat)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "abc.csv", TableFileName(analytics.TableABC, FormatCSV))
	assert.Equal(t, "retailpulse_01234567.xlsx", WorkbookFileName("0123456789abcdef"))
	assert.Equal(t, "retailpulse.xlsx", WorkbookFileName(""))
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestWriteTableCSV(t *testing.T) {
	view, err := analytics.View(testResult(t), analytics.TableReorderAlerts, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, view))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), string(utf8BOM))), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Product,Stock Level,Reorder Point", lines[0])
	assert.Equal(t, "Gadget,4,8", lines[1])
}

func TestWriteCSVQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, WriteOptions{
		Headers: []string{"Product"},
		Records: [][]string{{`Chair, "oak"`}},
	}))
	assert.Equal(t, "Product\n\"Chair, \"\"oak\"\"\"\n", buf.String())
}

func TestWriteWorkbook(t *testing.T) {
	result := testResult(t)
	views, err := defaultViews(result)
	require.NoError(t, err)
	require.Len(t, views, len(analytics.Tables()))

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, result, views...))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Top Products", "Reorder Alerts", "Product Profitability", "ABC Analysis"}, f.GetSheetList())

	revenue, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "650", revenue)

	rows, err := f.GetRows("Top Products")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Product", "Category", "Revenue", "Profit", "Units Sold"}, rows[0])
	assert.Equal(t, "Widget", rows[1][0])

	typ, err := f.GetCellType("Top Products", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "revenue is stored as a number")
}

func TestWriteWorkbookNothing(t *testing.T) {
	assert.Error(t, WriteWorkbook(&bytes.Buffer{}, nil))
}

func TestExportAllCSV(t *testing.T) {
	exp, dir := testExporter(t)
	result := testResult(t)
	views, err := defaultViews(result)
	require.NoError(t, err)

	paths, err := exp.ExportAll(context.Background(), result, views, FormatCSV)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for i, v := range views {
		assert.Equal(t, filepath.Join(dir, TableFileName(v.Table, FormatCSV)), paths[i])
		_, err := os.Stat(paths[i])
		assert.NoError(t, err)
	}
}

func TestExportAllXLSX(t *testing.T) {
	exp, dir := testExporter(t)
	result := testResult(t)
	views, err := defaultViews(result)
	require.NoError(t, err)

	paths, err := exp.ExportAll(context.Background(), result, views, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "retailpulse_01234567.xlsx")}, paths)
}

func TestExportAllCancelled(t *testing.T) {
	exp, _ := testExporter(t)
	result := testResult(t)
	views, err := defaultViews(result)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.ExportAll(ctx, result, views, FormatCSV)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream(t *testing.T) {
	exp, _ := testExporter(t)
	result := testResult(t)
	view, err := analytics.View(result, analytics.TableABC, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exp.Stream(context.Background(), &buf, FormatXLSX, result, view))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "ABC Analysis"}, f.GetSheetList())
}
