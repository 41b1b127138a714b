package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"retailpulse/internal/infrastructure"
	"retailpulse/pkg/contracts/events"
)

const (
	broadcastQueue = 256
	reasonNormal   = "normal"
	reasonSlow     = "slow_consumer"
	reasonShutdown = "shutdown"
)

type outbound struct {
	msgType string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *HubMetrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *HubMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start runs the hub loop in a goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client. It waits for the loop
// to exit. A stopped hub cannot be restarted.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				h.drop(ctx, c, reasonShutdown)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.connected(ctx)
			h.logger.Info("client registered",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("total_clients", count))
			h.greet(c)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				h.drop(ctx, c, reasonNormal)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client unregistered",
				slog.String("client_id", c.id),
				slog.Int("total_clients", count))

		case msg := <-h.broadcast:
			h.mu.Lock()
			sent := 0
			for c := range h.clients {
				select {
				case c.send <- msg.payload:
					sent++
				default:
					h.drop(ctx, c, reasonSlow)
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", c.id))
				}
			}
			h.mu.Unlock()
			h.metrics.sent(ctx, msg.msgType, sent)
		}
	}
}

// drop removes c and closes its send channel. h.mu must be held.
func (h *Hub) drop(ctx context.Context, c *Client, reason string) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.disconnected(ctx, time.Since(c.connectedAt), reason)
}

func (h *Hub) greet(c *Client) {
	payload, err := encode(events.MessageTypeConnect, c.traceID, events.ConnectData{
		ClientID: c.id,
		Message:  "Connected to RetailPulse",
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// Register adds a client. It returns without effect once the hub is stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast queues a message for every client. The trace id of ctx is
// attached. When the queue is full the message is dropped rather than
// blocking the caller.
func (h *Hub) Broadcast(ctx context.Context, msgType events.MessageType, data any) {
	payload, err := encode(msgType, infrastructure.GetTraceID(ctx), data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal message",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- outbound{msgType: string(msgType), payload: payload}:
	case <-h.quit:
	default:
		h.logger.WarnContext(ctx, "broadcast queue full, message dropped",
			slog.String("type", string(msgType)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(msgType events.MessageType, traceID string, data any) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
}
