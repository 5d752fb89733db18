package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"commandcenter-be/internal/pkg/logger"
)

const progressChannel = "kb_sync_progress"

// SyncProgress is pushed to every connected operator console while a
// knowledge base sync runs.
type SyncProgress struct {
	Phase     string `json:"phase"` // started | document | completed | failed
	SourceId  string `json:"source_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// Hub fans sync progress out to local websocket clients and, when Redis is
// configured, to clients attached to other instances.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	// instanceID lets the Redis subscriber skip frames this instance
	// already delivered locally.
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
		rdb:        rdb,
		instanceID: uuid.New().String(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conn_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"conn_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends a progress frame to every connected client. The sync worker
// calls this; failures to deliver never block the sync itself.
func (h *Hub) Publish(progress SyncProgress) {
	frame, _ := json.Marshal(map[string]interface{}{
		"type": "sync_progress",
		"data": progress,
	})

	h.deliverLocal(frame)

	// Other instances pick this up via Redis and deliver to their clients.
	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"origin": h.instanceID,
			"frame":  json.RawMessage(frame),
		})
		h.rdb.Publish(context.Background(), progressChannel, envelope)
	}
}

func (h *Hub) deliverLocal(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- frame:
		default:
			// Slow consumer. Drop the connection rather than the sync.
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"conn_id": client.ID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, progressChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope struct {
			Origin string          `json:"origin"`
			Frame  json.RawMessage `json:"frame"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Bad progress envelope from Redis", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.Origin == h.instanceID {
			continue
		}
		h.deliverLocal(envelope.Frame)
	}
}
