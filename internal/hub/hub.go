// Package hub provides connection management and circle fan-out for WebSocket clients.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xiaot623/serenai/internal/metrics"
)

// SendBufferSize is the per-connection outbound queue length.
const SendBufferSize = 256

var (
	// ErrBufferFull is returned when the send buffer is full.
	ErrBufferFull = errors.New("send buffer full")

	// ErrConnectionClosed is returned when sending to an unregistered connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	hub  *Hub
	mu   sync.Mutex

	// guarded by hub.mu
	circles map[string]string // circle id -> pseudonym
	closed  bool
}

// Hub manages all WebSocket connections and their circle membership.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Circles maps circle id to its live connections
	circles map[string]map[string]*Connection

	// Channels for registration/unregistration
	register   chan *Connection
	unregister chan *Connection

	// Broadcast channel; a single consumer keeps per-circle order
	broadcast chan *CircleMessage

	// Per-circle admission gates serializing policy checks with Join
	gates   map[string]*gate
	gatesMu sync.Mutex

	done    chan struct{}
	mu      sync.RWMutex
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type gate struct {
	mu      sync.Mutex
	waiters int
}

// CircleMessage is used to broadcast a frame to a circle. Recipients is the
// circle's membership when the broadcast was issued.
type CircleMessage struct {
	CircleID   string
	Recipients []*Connection
	Data       []byte
}

// NewHub creates a new Hub. m may be nil.
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		circles:     make(map[string]map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *CircleMessage, 256),
		gates:       make(map[string]*gate),
		done:        make(chan struct{}),
		logger:      logger.Named("hub"),
		metrics:     m,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
// On exit every remaining connection's send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for _, conn := range h.connections {
			h.removeLocked(conn)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			h.metrics.ConnectionOpened()
			h.logger.Debug("connection registered", zap.String("conn_id", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			_, ok := h.connections[conn.ID]
			if ok {
				h.removeLocked(conn)
			}
			h.mu.Unlock()
			if ok {
				h.logger.Debug("connection unregistered", zap.String("conn_id", conn.ID))
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// removeLocked drops conn from every circle and closes its send channel.
// Disconnect leaves circles silently; no member-left is emitted.
func (h *Hub) removeLocked(conn *Connection) {
	delete(h.connections, conn.ID)
	for circleID := range conn.circles {
		h.leaveLocked(conn, circleID)
	}
	if !conn.closed {
		conn.closed = true
		close(conn.Send)
		h.metrics.ConnectionClosed()
	}
}

func (h *Hub) deliver(msg *CircleMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range msg.Recipients {
		if conn.closed {
			continue
		}
		select {
		case conn.Send <- msg.Data:
		default:
			// Buffer full, close the connection
			h.logger.Warn("send buffer full, dropping connection",
				zap.String("conn_id", conn.ID), zap.String("circle_id", msg.CircleID))
			h.metrics.SendDropped()
			go h.Unregister(conn)
		}
	}
}

// NewConnection creates a new connection. It must be registered before use.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:      uuid.New().String(),
		Conn:    ws,
		Send:    make(chan []byte, SendBufferSize),
		hub:     h,
		circles: make(map[string]string),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection from the hub and from every circle it joined.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Join adds conn to a circle's broadcast group under the given pseudonym.
// Joining again only updates the pseudonym. It reports whether conn was newly added.
func (h *Hub) Join(conn *Connection, circleID, pseudonym string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.closed {
		return false
	}
	_, already := conn.circles[circleID]
	conn.circles[circleID] = pseudonym
	if h.circles[circleID] == nil {
		h.circles[circleID] = make(map[string]*Connection)
	}
	h.circles[circleID][conn.ID] = conn
	return !already
}

// Admit runs check with the circle's live member count and joins conn if it
// passes. Admissions to the same circle are serialized, so a capacity check
// cannot be raced by a concurrent join.
func (h *Hub) Admit(conn *Connection, circleID, pseudonym string, check func(liveMembers int) error) (bool, error) {
	g := h.acquireGate(circleID)
	defer h.releaseGate(circleID, g)

	if err := check(h.MemberCount(circleID)); err != nil {
		return false, err
	}
	return h.Join(conn, circleID, pseudonym), nil
}

func (h *Hub) acquireGate(circleID string) *gate {
	h.gatesMu.Lock()
	g := h.gates[circleID]
	if g == nil {
		g = &gate{}
		h.gates[circleID] = g
	}
	g.waiters++
	h.gatesMu.Unlock()

	g.mu.Lock()
	return g
}

func (h *Hub) releaseGate(circleID string, g *gate) {
	g.mu.Unlock()

	h.gatesMu.Lock()
	g.waiters--
	if g.waiters == 0 {
		delete(h.gates, circleID)
	}
	h.gatesMu.Unlock()
}

// Leave removes conn from a circle's broadcast group. It returns the pseudonym
// conn used there and whether it was a member.
func (h *Hub) Leave(conn *Connection, circleID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pseudonym, ok := conn.circles[circleID]
	if !ok {
		return "", false
	}
	h.leaveLocked(conn, circleID)
	return pseudonym, true
}

func (h *Hub) leaveLocked(conn *Connection, circleID string) {
	delete(conn.circles, circleID)
	if members := h.circles[circleID]; members != nil {
		delete(members, conn.ID)
		if len(members) == 0 {
			delete(h.circles, circleID)
		}
	}
}

// MembersOf returns the connection ids currently in a circle.
func (h *Hub) MembersOf(circleID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.circles[circleID]))
	for id := range h.circles[circleID] {
		ids = append(ids, id)
	}
	return ids
}

// MemberCount returns the number of live connections in a circle.
func (h *Hub) MemberCount(circleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.circles[circleID])
}

// CirclesOf returns the circles conn has joined, keyed to its pseudonym in each.
func (h *Hub) CirclesOf(conn *Connection) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]string, len(conn.circles))
	for k, v := range conn.circles {
		out[k] = v
	}
	return out
}

// Broadcast sends a frame to every connection in a circle.
func (h *Hub) Broadcast(circleID string, data []byte) {
	h.BroadcastExcept(circleID, "", data)
}

// BroadcastExcept sends a frame to every connection in a circle except one.
// Recipients are fixed at call time: a later Leave does not lose the frame and
// a later Join does not receive it.
func (h *Hub) BroadcastExcept(circleID, exceptConnID string, data []byte) {
	h.mu.RLock()
	recipients := make([]*Connection, 0, len(h.circles[circleID]))
	for id, conn := range h.circles[circleID] {
		if id != exceptConnID {
			recipients = append(recipients, conn)
		}
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}
	select {
	case h.broadcast <- &CircleMessage{CircleID: circleID, Recipients: recipients, Data: data}:
	case <-h.done:
	}
}

// BroadcastJSON sends a JSON message to every connection in a circle.
func (h *Hub) BroadcastJSON(circleID string, v interface{}) error {
	return h.BroadcastJSONExcept(circleID, "", v)
}

// BroadcastJSONExcept sends a JSON message to a circle, skipping one connection.
func (h *Hub) BroadcastJSONExcept(circleID, exceptConnID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastExcept(circleID, exceptConnID, data)
	return nil
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if conn.closed {
		return ErrConnectionClosed
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		h.metrics.SendDropped()
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetCircleCount returns the number of circles with at least one live connection.
func (h *Hub) GetCircleCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.circles)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
