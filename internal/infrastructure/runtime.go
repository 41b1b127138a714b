package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the Go runtime.
type RuntimeStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	SysMB         float64 `json:"sys_mb"`
	GCCount       uint32  `json:"gc_count"`
	CPUCount      int     `json:"cpu_count"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadRuntimeStats samples the runtime. started is the process start time.
func ReadRuntimeStats(started time.Time) RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(ms.HeapAlloc) / (1 << 20),
		SysMB:         float64(ms.Sys) / (1 << 20),
		GCCount:       ms.NumGC,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(started).Seconds(),
	}
}

// RegisterRuntimeGauges exports goroutines, heap size and uptime as
// observable gauges. The values are read at collection time.
func RegisterRuntimeGauges(meter metric.Meter, started time.Time) error {
	goroutines, err := meter.Int64ObservableGauge("runtime_goroutines",
		metric.WithDescription("Number of live goroutines"))
	if err != nil {
		return err
	}
	heap, err := meter.Float64ObservableGauge("runtime_heap_alloc_megabytes",
		metric.WithDescription("Heap bytes allocated and in use"), metric.WithUnit("MBy"))
	if err != nil {
		return err
	}
	uptime, err := meter.Float64ObservableGauge("process_uptime_seconds",
		metric.WithDescription("Seconds since the process started"), metric.WithUnit("s"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := ReadRuntimeStats(started)
		o.ObserveInt64(goroutines, int64(s.Goroutines))
		o.ObserveFloat64(heap, s.HeapAllocMB)
		o.ObserveFloat64(uptime, s.UptimeSeconds)
		return nil
	}, goroutines, heap, uptime)
	return err
}
