// Package events defines the messages pushed to WebSocket clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"

	// Analysis progress
	MessageTypeAnalysisStage     MessageType = "analysis:stage"
	MessageTypeAnalysisCompleted MessageType = "analysis:completed"
	MessageTypeAnalysisFailed    MessageType = "analysis:failed"

	// Dataset changes
	MessageTypeDatasetLoaded MessageType = "dataset:loaded"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data any `json:"data,omitempty"`
}

// ConnectData greets a newly connected client.
type ConnectData struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// StageSnapshot reports one stage transition of an analysis run.
type StageSnapshot struct {
	RunID      string `json:"run_id"`
	Stage      string `json:"stage"`
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	Status     string `json:"status"` // started|completed|failed
	Progress   int    `json:"progress"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalysisCompleted summarizes a successful run.
type AnalysisCompleted struct {
	RunID        string  `json:"run_id"`
	DurationMS   int64   `json:"duration_ms"`
	AcceptedRows int     `json:"accepted_rows"`
	RejectedRows int     `json:"rejected_rows"`
	Products     int     `json:"products"`
	TotalRevenue float64 `json:"total_revenue"`
}

// AnalysisFailed reports a run that produced no result. UserError is set
// when the input data, not the system, caused the failure.
type AnalysisFailed struct {
	Error     string `json:"error"`
	UserError bool   `json:"user_error"`
}

// DatasetLoaded announces a new active dataset.
type DatasetLoaded struct {
	Source string `json:"source"` // upload|file|sample|sheets|rows
	Name   string `json:"name,omitempty"`
	Rows   int    `json:"rows"`
}
