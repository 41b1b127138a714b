package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"retailpulse/internal/analytics"
	"retailpulse/internal/config"
	"retailpulse/internal/infrastructure"
	"retailpulse/internal/shared/testutil"
	"retailpulse/pkg/contracts/domain"
	"retailpulse/pkg/contracts/events"
)

// fakeConn is an in-memory Connection.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
	reads   chan error
}

func newFakeConn() *fakeConn { return &fakeConn{reads: make(chan error, 1)} }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, <-f.reads
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) RemoteAddr() string                { return "127.0.0.1:9999" }

func decode(t *testing.T, raw []byte) events.WebSocketMessage {
	t.Helper()
	var msg events.WebSocketMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func recv(t *testing.T, ch <-chan []byte) events.WebSocketMessage {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "send channel closed")
		return decode(t, raw)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return events.WebSocketMessage{}
}

func startHub(t *testing.T, metrics *HubMetrics) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, metrics)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t, nil)
	c := NewClient(hub, newFakeConn(), "trace-1", DefaultTiming(), nil)
	hub.Register(c)

	hello := recv(t, c.send)
	assert.Equal(t, events.MessageTypeConnect, hello.Type)
	assert.Equal(t, "trace-1", hello.TraceID)

	ctx := infrastructure.WithTraceID(context.Background(), "trace-2")
	hub.Broadcast(ctx, events.MessageTypeDatasetLoaded, events.DatasetLoaded{Source: "sample", Rows: 10})

	msg := recv(t, c.send)
	assert.Equal(t, events.MessageTypeDatasetLoaded, msg.Type)
	assert.Equal(t, "trace-2", msg.TraceID)
	assert.NotEmpty(t, msg.ID)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10), data["rows"])

	assert.Equal(t, 1, hub.ClientCount())
	hub.Unregister(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubDropsSlowClient(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := NewHubMetrics(mp.Meter("test"))
	require.NoError(t, err)

	hub := startHub(t, metrics)
	c := NewClient(hub, newFakeConn(), "", DefaultTiming(), nil)
	hub.Register(c)

	// Nobody drains c.send: the greeting plus sendBuffer messages overflow it.
	for i := 0; i < sendBuffer+1; i++ {
		hub.Broadcast(context.Background(), events.MessageTypeAnalysisStage, i)
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "websocket_dropped_clients_total" {
				found = true
				sum := m.Data.(metricdata.Sum[int64])
				assert.Equal(t, int64(1), sum.DataPoints[0].Value)
			}
		}
	}
	assert.True(t, found)
}

func TestHubStopClosesClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()

	c := NewClient(hub, newFakeConn(), "", DefaultTiming(), nil)
	hub.Register(c)
	recv(t, c.send)

	hub.Stop()
	_, ok := <-c.send
	assert.False(t, ok)

	// Calls after Stop return without blocking.
	hub.Register(c)
	hub.Unregister(c)
	hub.Broadcast(context.Background(), events.MessageTypeError, nil)
	hub.Stop()
}

func TestClientWritePump(t *testing.T) {
	hub := startHub(t, nil)
	conn := newFakeConn()
	c := NewClient(hub, conn, "", DefaultTiming(), nil)

	done := make(chan struct{})
	go func() {
		c.WritePump()
		close(done)
	}()
	c.send <- []byte(`{"type":"x"}`)
	close(c.send)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump did not stop")
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.written, 2, "message then close frame")
	assert.Equal(t, `{"type":"x"}`, string(conn.written[0]))
	assert.True(t, conn.closed)
}

func TestClientReadPumpUnregisters(t *testing.T) {
	hub := startHub(t, nil)
	conn := newFakeConn()
	c := NewClient(hub, conn, "", DefaultTiming(), nil)
	hub.Register(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.reads <- errors.New("connection reset")
	c.ReadPump()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.True(t, conn.closed)
}

func TestTimingFrom(t *testing.T) {
	assert.Equal(t, DefaultTiming(), TimingFrom(config.WebSocketConfig{}))

	tm := TimingFrom(config.WebSocketConfig{PongWait: 10 * time.Second, PingPeriod: 20 * time.Second})
	assert.Equal(t, 10*time.Second, tm.PongWait)
	assert.Equal(t, 9*time.Second, tm.PingPeriod)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://shop.example"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://api.example/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, check(req("")))
	assert.True(t, check(req("https://shop.example")))
	assert.True(t, check(req("http://api.example")))
	assert.False(t, check(req("https://evil.example")))
	assert.True(t, originChecker([]string{"*"})(req("https://evil.example")))
}

func TestHandlerEndToEnd(t *testing.T) {
	hub := startHub(t, nil)
	handler := NewHandler(hub, config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, nil, nil)
	server := httptest.NewServer(handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, events.MessageTypeConnect, decode(t, raw).Type)

	NewRunBroadcaster(hub).OnStage(context.Background(), analytics.StageEvent{
		RunID: "r1", Stage: analytics.StageFilter, Index: 3, Total: 6, Status: analytics.StageCompleted,
	})
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	msg := decode(t, raw)
	assert.Equal(t, events.MessageTypeAnalysisStage, msg.Type)
	data := msg.Data.(map[string]any)
	assert.Equal(t, float64(50), data["progress"])
	assert.Equal(t, "filter", data["stage"])
}

type capture struct {
	msgs []events.MessageType
	data []any
}

func (c *capture) Broadcast(_ context.Context, t events.MessageType, d any) {
	c.msgs = append(c.msgs, t)
	c.data = append(c.data, d)
}

func TestRunBroadcaster(t *testing.T) {
	out := &capture{}
	b := NewRunBroadcaster(out)
	ctx := context.Background()

	b.OnStage(ctx, analytics.StageEvent{Stage: analytics.StageValidate, Index: 1, Total: 6, Status: analytics.StageStarted})
	b.OnStage(ctx, analytics.StageEvent{Stage: analytics.StageFilter, Index: 3, Total: 6,
		Status: analytics.StageFailed, Err: analytics.ErrEmptyAfterFilter})
	b.Completed(ctx, &domain.AnalysisResult{RunID: "r1", Duration: 1500 * time.Millisecond,
		Core: domain.CoreMetrics{TotalRevenue: 650}})
	b.Failed(ctx, analytics.ErrEmptyAfterFilter)
	b.DatasetLoaded(ctx, events.DatasetLoaded{Source: "upload", Name: "sales.csv", Rows: 4})

	assert.Equal(t, []events.MessageType{
		events.MessageTypeAnalysisStage,
		events.MessageTypeAnalysisStage,
		events.MessageTypeAnalysisCompleted,
		events.MessageTypeAnalysisFailed,
		events.MessageTypeDatasetLoaded,
	}, out.msgs)

	assert.Equal(t, 0, out.data[0].(events.StageSnapshot).Progress)
	failedStage := out.data[1].(events.StageSnapshot)
	assert.Equal(t, 50, failedStage.Progress)
	assert.Equal(t, analytics.ErrEmptyAfterFilter.Error(), failedStage.Error)
	assert.Equal(t, int64(1500), out.data[2].(events.AnalysisCompleted).DurationMS)
	assert.True(t, out.data[3].(events.AnalysisFailed).UserError)
}
