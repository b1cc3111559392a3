package availability

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// EventAvailability is the WebSocket event carrying seat counts.
const EventAvailability = "availability"

// SnapshotFunc returns the current seat accounting for a session, sent to a
// client when it joins a room.
type SnapshotFunc func(sessionID uuid.UUID) (*models.SessionAvailability, error)

// Publisher publishes availability events to Redis for cross-instance fanout.
type Publisher interface {
	PublishSessionEvent(sessionID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to a session's channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeSession(sessionID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains session_id -> set of connections and broadcasts availability
// changes. Redis pub/sub carries events between instances.
type Hub struct {
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per session
	mu       sync.RWMutex
	logger   *zap.Logger
	pub      Publisher
	sub      Subscriber
	snapshot SnapshotFunc
}

// NewHub creates a new availability hub. pub and sub may be nil (single instance).
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// SetSnapshotFunc sets the initial-count provider for joining clients.
func (h *Hub) SetSnapshotFunc(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Register adds a client to a session room. Starts the Redis subscription for
// the session when the first client joins, and sends the client the current count.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.SessionID] == nil {
		h.rooms[c.SessionID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeSession(c.SessionID, func(event string, payload []byte) {
				h.broadcastLocal(c.SessionID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.SessionID] = cancel
			}
		}
	}
	h.rooms[c.SessionID][c.ID] = c
	snapshot := h.snapshot
	h.mu.Unlock()

	if snapshot != nil {
		if av, err := snapshot(c.SessionID); err == nil && av != nil {
			data, _ := json.Marshal(av)
			select {
			case c.send <- WSMessage{Event: EventAvailability, Data: data}:
			default:
			}
		}
	}
	h.logger.Debug("client joined session room", zap.String("client_id", c.ID), zap.String("session_id", c.SessionID.String()))
}

// Unregister removes a client from its session room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.SessionID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.SessionID)
			if cancel, ok := h.subs[c.SessionID]; ok {
				cancel()
				delete(h.subs, c.SessionID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left session room", zap.String("client_id", c.ID), zap.String("session_id", c.SessionID.String()))
}

// BroadcastAvailability sends the seat accounting to local clients and
// publishes it to Redis for other instances. Implements checkout.Broadcaster.
func (h *Hub) BroadcastAvailability(av models.SessionAvailability) {
	data, err := json.Marshal(av)
	if err != nil {
		return
	}
	h.broadcastLocal(av.SessionID, EventAvailability, json.RawMessage(data))
	if h.pub != nil {
		_ = h.pub.PublishSessionEvent(av.SessionID, EventAvailability, data)
	}
}

// ClientCount returns the number of connected clients for a session.
func (h *Hub) ClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) broadcastLocal(sessionID uuid.UUID, event string, payload json.RawMessage) {
	msg := WSMessage{Event: event, Data: payload}

	h.mu.RLock()
	clients := h.rooms[sessionID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
