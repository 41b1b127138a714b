package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retailpulse/pkg/contracts/domain"
	"retailpulse/pkg/contracts/events"
)

// MockNotifier records dataset and run notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) DatasetLoaded(ctx context.Context, ev events.DatasetLoaded) {
	m.Called(ctx, ev)
}

func (m *MockNotifier) Completed(ctx context.Context, r *domain.AnalysisResult) {
	m.Called(ctx, r)
}

func (m *MockNotifier) Failed(ctx context.Context, err error) {
	m.Called(ctx, err)
}

type fakeHub struct{ clients int }

func (h fakeHub) ClientCount() int { return h.clients }

type fakeDatasets struct{ loaded bool }

func (f fakeDatasets) HasDataset() bool { return f.loaded }

type fakeGetter struct {
	values [][]any
	err    error
	calls  int
}

func (f *fakeGetter) GetValues(context.Context, string, string) ([][]any, error) {
	f.calls++
	return f.values, f.err
}
