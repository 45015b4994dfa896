// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/luxfi/mevscope/observability"
)

// Rooms
const (
	RoomMEV       = "mev-transactions"
	RoomArbitrage = "arbitrage-opportunities"
)

// Client events
const (
	EventJoinMEV        = "join-mev-feed"
	EventLeaveMEV       = "leave-mev-feed"
	EventJoinArbitrage  = "join-arbitrage-feed"
	EventLeaveArbitrage = "leave-arbitrage-feed"
)

// Message types sent by the hub
const (
	MessageJoined    = "joined"
	MessageLeft      = "left"
	MessageHeartbeat = "heartbeat"
	MessageError     = "error"
)

const (
	heartbeatInterval = 30 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 10 * time.Second
	maxMessageSize    = 512
	sendBuffer        = 64
)

// events maps a client event to its room and whether it joins.
var events = map[string]struct {
	room string
	join bool
}{
	EventJoinMEV:        {RoomMEV, true},
	EventLeaveMEV:       {RoomMEV, false},
	EventJoinArbitrage:  {RoomArbitrage, true},
	EventLeaveArbitrage: {RoomArbitrage, false},
}

// WebSocketMessage is the hub's outbound frame.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Room      string      `json:"room,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// clientEvent is the inbound frame.
type clientEvent struct {
	Event string `json:"event"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type membership struct {
	client *client
	room   string
	join   bool
}

type roomMessage struct {
	room string
	data []byte
}

type reply struct {
	client *client
	data   []byte
}

// Hub tracks WebSocket clients and their room memberships. Run owns the
// maps; the mutex only guards reads from Stats.
type Hub struct {
	clients map[*client]bool
	rooms   map[string]map[*client]bool

	register   chan *client
	unregister chan *client
	membership chan membership
	replies    chan reply
	publish    chan roomMessage
	done       chan struct{}

	mu      sync.RWMutex
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(metrics *observability.Metrics, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		rooms:      make(map[string]map[*client]bool),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		membership: make(chan membership, 16),
		replies:    make(chan reply, 16),
		publish:    make(chan roomMessage, 256),
		done:       make(chan struct{}),
		metrics:    metrics,
		log:        log.WithField("component", "hub"),
	}
}

// Run processes hub events until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.metrics.WSConnected(1)
			h.log.WithField("remote", c.conn.RemoteAddr().String()).Debug("Client connected")

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.membership:
			h.apply(m)

		case r := <-h.replies:
			if h.clients[r.client] {
				h.deliver(r.client, r.data)
			}

		case msg := <-h.publish:
			h.mu.RLock()
			members := h.rooms[msg.room]
			for c := range members {
				h.deliver(c, msg.data)
			}
			h.mu.RUnlock()

		case <-heartbeat.C:
			data := encode(WebSocketMessage{Type: MessageHeartbeat, Timestamp: time.Now().UnixMilli()})
			h.mu.RLock()
			for c := range h.clients {
				h.deliver(c, data)
			}
			h.mu.RUnlock()
		}
	}
}

// Publish sends v to every member of room. It is a no-op when the room is
// empty and drops the message when the hub is backed up.
func (h *Hub) Publish(room, typ string, v interface{}) {
	h.mu.RLock()
	empty := len(h.rooms[room]) == 0
	h.mu.RUnlock()
	if empty {
		return
	}

	data := encode(WebSocketMessage{Type: typ, Room: room, Data: v, Timestamp: time.Now().UnixMilli()})
	select {
	case h.publish <- roomMessage{room: room, data: data}:
	default:
		h.log.WithField("room", room).Warn("Publish queue full, dropping message")
	}
}

// Stats returns client and room counts.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]int{"clients": len(h.clients)}
	for _, room := range []string{RoomMEV, RoomArbitrage} {
		stats[room] = len(h.rooms[room])
	}
	return stats
}

func (h *Hub) apply(m membership) {
	h.mu.Lock()
	if !h.clients[m.client] {
		h.mu.Unlock()
		return
	}
	members := h.rooms[m.room]
	if m.join {
		if members == nil {
			members = make(map[*client]bool)
			h.rooms[m.room] = members
		}
		members[m.client] = true
	} else if members != nil {
		delete(members, m.client)
		if len(members) == 0 {
			delete(h.rooms, m.room)
		}
	}
	h.mu.Unlock()

	typ := MessageLeft
	if m.join {
		typ = MessageJoined
	}
	h.deliver(m.client, encode(WebSocketMessage{Type: typ, Room: m.room, Timestamp: time.Now().UnixMilli()}))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
	h.metrics.WSConnected(-1)
}

// deliver queues data for c. A client whose buffer is full is dropped.
// Only the Run goroutine calls it, so c.send is never closed underneath.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		c.conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		h.metrics.WSConnected(-1)
	}
	h.clients = make(map[*client]bool)
	h.rooms = make(map[string]map[*client]bool)
}

// serve registers conn and runs its pumps. It returns when the connection
// closes or the hub stops.
func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case <-h.done:
		conn.Close()
		return
	default:
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var ev clientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			if !h.replyError(c, "malformed event") {
				return
			}
			continue
		}
		e, ok := events[ev.Event]
		if !ok {
			if !h.replyError(c, "unknown event: "+ev.Event) {
				return
			}
			continue
		}

		select {
		case h.membership <- membership{client: c, room: e.room, join: e.join}:
		case <-h.done:
			return
		}
	}
}

// replyError reports false once the hub has stopped.
func (h *Hub) replyError(c *client, msg string) bool {
	data := encode(WebSocketMessage{Type: MessageError, Data: msg, Timestamp: time.Now().UnixMilli()})
	select {
	case h.replies <- reply{client: c, data: data}:
		return true
	case <-h.done:
		return false
	}
}

// writePump drains c.send. It also returns once the hub stops, since a
// client registered after Run exits never has its send channel closed.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				h.closeFrame(c)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-h.done:
			h.closeFrame(c)
			return
		}
	}
}

func (h *Hub) closeFrame(c *client) {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func encode(msg WebSocketMessage) []byte {
	data, _ := json.Marshal(msg)
	return data
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.config.FrontendURL
		},
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).WithField("request_id", RequestID(r.Context())).Debug("WebSocket upgrade failed")
		return
	}
	s.hub.serve(conn)
}
