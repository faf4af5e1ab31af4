package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/logicfill/game/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must stay below pongWait
	maxMessageSize = 512

	// Queued broadcasts before new ones are dropped
	broadcastBuffer = 256
	outboxSize      = 256
)

// Event names pushed to clients
const (
	EventStateUpdate = "state_update"
	EventPlace       = "place"
	EventVictory     = "victory"
	EventTimeUp      = "time_up"
	EventLevelChange = "level_change"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is the JSON document pushed to clients
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// subscriber is one browser tab watching one session
type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	outbox chan []byte
	room   string
}

type room map[*subscriber]struct{}

// Hub fans session events out to the websocket subscribers of that session.
// rooms is mutated only from Run; the lock lets ClientCount read it.
type Hub struct {
	rooms map[string]room
	mu    sync.RWMutex

	queue  chan *Message
	joins  chan *subscriber
	leaves chan *subscriber
	done   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]room),
		queue:  make(chan *Message, broadcastBuffer),
		joins:  make(chan *subscriber),
		leaves: make(chan *subscriber),
		done:   make(chan struct{}),
	}
}

func roomKey(sessionID string) string { return strings.ToLower(sessionID) }

// Run serves joins, leaves and queued messages until ctx is done, then
// disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.detachAll()
			return
		case sub := <-h.joins:
			h.attach(sub)
		case sub := <-h.leaves:
			h.detach(sub)
		case msg := <-h.queue:
			h.deliver(msg)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to sessionID.
// A non-nil initial message is sent before anything else.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		hub:    h,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		room:   roomKey(sessionID),
	}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			sub.outbox <- data
		}
	}

	select {
	case h.joins <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go sub.writeLoop()
	go sub.readLoop()
}

// Broadcast queues msg for the subscribers of msg.SessionID. A full queue
// drops the message.
func (h *Hub) Broadcast(msg *Message) {
	select {
	case h.queue <- msg:
	default:
		log.Printf("[Hub] queue full, dropping %s for session %s", msg.Event, msg.SessionID)
	}
}

// BroadcastToSession pushes a plain state update
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.BroadcastEvent(sessionID, EventStateUpdate, state, nil)
}

// BroadcastEvent pushes a named event with its state and payload
func (h *Hub) BroadcastEvent(sessionID string, event string, state *engine.GameState, data interface{}) {
	h.Broadcast(&Message{SessionID: sessionID, GameState: state, Event: event, Data: data})
}

// ClientCount reports how many subscribers watch sessionID
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey(sessionID)])
}

func (h *Hub) attach(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[sub.room]
	if members == nil {
		members = make(room)
		h.rooms[sub.room] = members
	}
	members[sub] = struct{}{}
	log.Printf("[Hub] %s: %d watching", sub.room, len(members))
}

func (h *Hub) detach(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
}

// dropLocked closes sub's outbox once and forgets empty rooms
func (h *Hub) dropLocked(sub *subscriber) {
	members := h.rooms[sub.room]
	if _, ok := members[sub]; !ok {
		return
	}
	delete(members, sub)
	close(sub.outbox)
	if len(members) == 0 {
		delete(h.rooms, sub.room)
	}
	log.Printf("[Hub] %s: %d watching", sub.room, len(members))
}

// deliver encodes msg once and hands it to every subscriber of its room.
// Subscribers that cannot keep up are disconnected.
func (h *Hub) deliver(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] encode %s: %v", msg.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[roomKey(msg.SessionID)] {
		select {
		case sub.outbox <- data:
		default:
			h.dropLocked(sub)
		}
	}
}

func (h *Hub) detachAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, members := range h.rooms {
		for sub := range members {
			h.dropLocked(sub)
		}
	}
}

// readLoop discards inbound frames; it exists to process pongs and notice
// the peer going away. Play happens over REST and MCP.
func (s *subscriber) readLoop() {
	defer func() {
		select {
		case s.hub.leaves <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Hub] %s: read: %v", s.room, err)
			}
			return
		}
	}
}

func (s *subscriber) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		var (
			kind    = websocket.PingMessage
			payload []byte
		)
		select {
		case data, open := <-s.outbox:
			if !open {
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, data
		case <-ping.C:
		}

		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(kind, payload); err != nil {
			return
		}
	}
}
