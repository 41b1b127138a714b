package websocket

import (
	"context"

	"retailpulse/internal/analytics"
	"retailpulse/pkg/contracts/domain"
	"retailpulse/pkg/contracts/events"
)

// Broadcaster sends a typed message to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, msgType events.MessageType, data any)
}

// RunBroadcaster publishes analysis progress and dataset changes.
type RunBroadcaster struct {
	out Broadcaster
}

// NewRunBroadcaster wraps out, usually a *Hub.
func NewRunBroadcaster(out Broadcaster) *RunBroadcaster {
	return &RunBroadcaster{out: out}
}

// OnStage implements analytics.Observer.
func (b *RunBroadcaster) OnStage(ctx context.Context, ev analytics.StageEvent) {
	snap := events.StageSnapshot{
		RunID:      ev.RunID,
		Stage:      string(ev.Stage),
		Index:      ev.Index,
		Total:      ev.Total,
		Status:     string(ev.Status),
		Progress:   progress(ev),
		Message:    ev.Message,
		DurationMS: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		snap.Error = ev.Err.Error()
	}
	b.out.Broadcast(ctx, events.MessageTypeAnalysisStage, snap)
}

// Completed announces a finished run.
func (b *RunBroadcaster) Completed(ctx context.Context, r *domain.AnalysisResult) {
	b.out.Broadcast(ctx, events.MessageTypeAnalysisCompleted, events.AnalysisCompleted{
		RunID:        r.RunID,
		DurationMS:   r.Duration.Milliseconds(),
		AcceptedRows: r.Stats.AcceptedRows,
		RejectedRows: r.Stats.RejectedRows,
		Products:     r.Inventory.TotalProducts,
		TotalRevenue: r.Core.TotalRevenue,
	})
}

// Failed announces a run that produced no result.
func (b *RunBroadcaster) Failed(ctx context.Context, err error) {
	b.out.Broadcast(ctx, events.MessageTypeAnalysisFailed, events.AnalysisFailed{
		Error:     err.Error(),
		UserError: analytics.IsUserError(err),
	})
}

// DatasetLoaded announces a new active dataset.
func (b *RunBroadcaster) DatasetLoaded(ctx context.Context, ev events.DatasetLoaded) {
	b.out.Broadcast(ctx, events.MessageTypeDatasetLoaded, ev)
}

// progress is the share of stages finished, in percent.
func progress(ev analytics.StageEvent) int {
	if ev.Total == 0 {
		return 0
	}
	done := ev.Index
	if ev.Status == analytics.StageStarted {
		done--
	}
	return done * 100 / ev.Total
}
