package http

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"retailpulse/internal/analytics"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/services"
	"retailpulse/pkg/contracts/domain"
)

// MockAnalysisService is a mock implementation of AnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func resultArgs(args mock.Arguments) (*domain.AnalysisResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) LoadRows(ctx context.Context, source, name string, rows []domain.RawRow) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called(source, name, rows))
}

// Upload drains r so tests can assert on the streamed content.
func (m *MockAnalysisService) Upload(ctx context.Context, name string, r io.Reader) (*domain.AnalysisResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return resultArgs(m.Called(name, string(body)))
}

func (m *MockAnalysisService) LoadFile(ctx context.Context, name string) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called(name))
}

func (m *MockAnalysisService) LoadSample(ctx context.Context, n int) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called(n))
}

func (m *MockAnalysisService) LoadSheet(ctx context.Context, ref, readRange string) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called(ref, readRange))
}

func (m *MockAnalysisService) Analyze(ctx context.Context, in services.AnalyzeInput) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called(in))
}

func (m *MockAnalysisService) ClearFilters(ctx context.Context) (*domain.AnalysisResult, error) {
	return resultArgs(m.Called())
}

func (m *MockAnalysisService) Result() (*domain.AnalysisResult, error) {
	return resultArgs(m.Called())
}

func (m *MockAnalysisService) Options() (domain.FilterOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.FilterOptions), args.Error(1)
}

func (m *MockAnalysisService) Dataset() (services.DatasetSummary, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetSummary), args.Error(1)
}

func (m *MockAnalysisService) Datasets() ([]files.FileInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]files.FileInfo), args.Error(1)
}

func (m *MockAnalysisService) Table(q services.TableQuery) (analytics.TableView, error) {
	args := m.Called(q)
	return args.Get(0).(analytics.TableView), args.Error(1)
}

func (m *MockAnalysisService) ExportTable(ctx context.Context, w io.Writer, id analytics.TableID, format exporter.Format) error {
	args := m.Called(id, format)
	if s, ok := args.Get(0).(string); ok {
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockAnalysisService) ExportAll(ctx context.Context, format exporter.Format) ([]string, error) {
	args := m.Called(format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAnalysisService) Guide() services.Guide {
	return m.Called().Get(0).(services.Guide)
}
