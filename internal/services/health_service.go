package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"retailpulse/internal/config"
	"retailpulse/internal/infrastructure"
	"retailpulse/pkg/contracts"
)

// Health status values.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// DatasetReporter reports whether a dataset is loaded.
type DatasetReporter interface {
	HasDataset() bool
}

// HealthService provides health check functionality
type HealthService struct {
	paths     config.PathsConfig
	hub       ClientCounter
	analysis  DatasetReporter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionInfo is the build information plus process uptime.
type VersionInfo struct {
	contracts.VersionInfo
	StartTime     time.Time `json:"start_time"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// NewHealthService creates a health service. hub and analysis may be nil.
func NewHealthService(paths config.PathsConfig, hub ClientCounter, analysis DatasetReporter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:     paths,
		hub:       hub,
		analysis:  analysis,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports ready when the data and export directories are
// usable and the WebSocket hub is wired.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"data_dir":   checkDir(hs.paths.DataDir),
			"export_dir": checkDir(hs.paths.ExportDir),
			"websocket":  hs.checkWebSocket(),
			"analysis":   hs.checkAnalysis(),
		},
	}
	for name, svc := range status.Services {
		if svc.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", svc.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.ReadRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		VersionInfo:   contracts.GetVersionInfo(),
		StartTime:     hs.startTime.UTC(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
	}
}

func checkDir(dir string) ServiceHealth {
	if dir == "" {
		return ServiceHealth{Status: StatusNotReady, Message: "directory not configured"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return ServiceHealth{Status: StatusReady}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}

// An empty workspace is still ready; the message tells the caller what to do.
func (hs *HealthService) checkAnalysis() ServiceHealth {
	if hs.analysis == nil || !hs.analysis.HasDataset() {
		return ServiceHealth{Status: StatusReady, Message: "no dataset loaded"}
	}
	return ServiceHealth{Status: StatusReady, Message: "dataset loaded"}
}
