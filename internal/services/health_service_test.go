package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpulse/internal/config"
	"retailpulse/internal/shared/testutil"
	"retailpulse/pkg/contracts"
)

func healthPaths(t *testing.T) config.PathsConfig {
	t.Helper()
	dir := t.TempDir()
	paths := config.PathsConfig{
		DataDir:   filepath.Join(dir, "data"),
		ExportDir: filepath.Join(dir, "exports"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0o755))
	require.NoError(t, os.MkdirAll(paths.ExportDir, 0o755))
	return paths
}

func TestHealthCheck(t *testing.T) {
	hs := NewHealthService(healthPaths(t), fakeHub{}, nil, nil)
	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *config.PathsConfig)
		hub      ClientCounter
		want     string
		notReady string
	}{
		{name: "ready", hub: fakeHub{clients: 2}, want: StatusReady},
		{
			name:     "missing_export_dir",
			mutate:   func(p *config.PathsConfig) { p.ExportDir = filepath.Join(p.ExportDir, "gone") },
			hub:      fakeHub{},
			want:     StatusNotReady,
			notReady: "export_dir",
		},
		{
			name: "data_dir_is_a_file",
			mutate: func(p *config.PathsConfig) {
				p.DataDir = filepath.Join(p.DataDir, "file.csv")
				_ = os.WriteFile(p.DataDir, []byte("x"), 0o644)
			},
			hub:      fakeHub{},
			want:     StatusNotReady,
			notReady: "data_dir",
		},
		{name: "no_hub", want: StatusNotReady, notReady: "websocket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			paths := healthPaths(t)
			if tt.mutate != nil {
				tt.mutate(&paths)
			}
			hs := NewHealthService(paths, tt.hub, fakeDatasets{}, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Services, 4)
			if tt.notReady != "" {
				assert.Equal(t, StatusNotReady, status.Services[tt.notReady].Status)
				assert.True(t, logs.ContainsAttr("service", tt.notReady))
			}
		})
	}
}

func TestReadinessReportsDataset(t *testing.T) {
	hs := NewHealthService(healthPaths(t), fakeHub{clients: 3}, fakeDatasets{loaded: true}, nil)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "dataset loaded", status.Services["analysis"].Message)
	assert.Equal(t, "3 clients connected", status.Services["websocket"].Message)
}

func TestLivenessCheck(t *testing.T) {
	hs := NewHealthService(healthPaths(t), nil, nil, nil)
	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, status.Status)
	require.NotNil(t, status.Runtime)
	assert.Positive(t, status.Runtime.Goroutines)
}

func TestVersion(t *testing.T) {
	hs := NewHealthService(healthPaths(t), nil, nil, nil)
	v := hs.Version()
	assert.Equal(t, contracts.Version, v.Version)
	assert.Equal(t, contracts.APIVersion, v.APIVersion)
	assert.NotEmpty(t, v.GoVersion)
	assert.GreaterOrEqual(t, v.UptimeSeconds, 0.0)
}
