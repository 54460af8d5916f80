package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped
	broadcastBuffer = 256
)

// ErrHubNotRunning is returned by queries made before Run has started
var ErrHubNotRunning = errors.New("websocket hub is not running")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Spectators are read-only, so any origin may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON body of every frame sent to spectators
type Message struct {
	SessionID string           `json:"session_id"`
	Snapshot  *engine.Snapshot `json:"snapshot,omitempty"`
	Event     string           `json:"event,omitempty"`
	Data      interface{}      `json:"data,omitempty"`
}

// Spectator is one read-only connection watching a game
type Spectator struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type frame struct {
	sessionID string
	data      []byte
}

// Hub maintains the set of spectators per session and fans game updates
// out to them. Only the Run goroutine touches the audiences map.
type Hub struct {
	// Connected spectators by session ID
	audiences map[string]map[*Spectator]bool

	// Encoded messages waiting to be delivered
	broadcast chan frame

	// Spectators joining
	register chan *Spectator

	// Spectators leaving
	unregister chan *Spectator

	// Answers viewer count queries from outside the Run loop
	counts chan countRequest

	// Closed when Run returns
	done chan struct{}

	running atomic.Bool
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		audiences:  make(map[string]map[*Spectator]bool),
		broadcast:  make(chan frame, broadcastBuffer),
		register:   make(chan *Spectator),
		unregister: make(chan *Spectator),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, viewers := range h.audiences {
				for viewer := range viewers {
					h.leave(viewer)
				}
			}
			return

		case viewer := <-h.register:
			h.join(viewer)

		case viewer := <-h.unregister:
			h.leave(viewer)

		case message := <-h.broadcast:
			h.deliver(message)

		case req := <-h.counts:
			req.reply <- len(h.audiences[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and subscribes it to sessionID. The initial
// snapshot, when given, is the first message the spectator receives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *engine.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	viewer := &Spectator{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	if initial != nil {
		if data, err := encode(&Message{SessionID: sessionID, Snapshot: initial, Event: "state_update"}); err == nil {
			viewer.send <- data
		}
	}

	select {
	case h.register <- viewer:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go viewer.writePump()
	go viewer.readPump()
}

// BroadcastToSession sends a snapshot to every spectator of a session
func (h *Hub) BroadcastToSession(sessionID string, snapshot *engine.Snapshot) {
	h.queue(&Message{
		SessionID: sessionID,
		Snapshot:  snapshot,
		Event:     "state_update",
	})
}

// BroadcastEvent sends a custom event to all viewers in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.queue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// SpectatorCount reports how many spectators a session has. Before Run has
// started it returns ErrHubNotRunning; after Run has stopped, zero.
func (h *Hub) SpectatorCount(ctx context.Context, sessionID string) (int, error) {
	if !h.running.Load() {
		return 0, ErrHubNotRunning
	}
	req := countRequest{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
	case <-h.done:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-req.reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// queue never blocks the caller, which usually holds the game lock
func (h *Hub) queue(message *Message) {
	data, err := encode(message)
	if err != nil {
		log.WithError(err).Warn("failed to marshal websocket message")
		return
	}
	select {
	case h.broadcast <- frame{sessionID: message.SessionID, data: data}:
	default:
		log.WithField("session", message.SessionID).Warn("websocket broadcast queue full, dropping message")
	}
}

func encode(message *Message) ([]byte, error) {
	return json.Marshal(message)
}

// join adds a spectator to its game's audience
func (h *Hub) join(viewer *Spectator) {
	if h.audiences[viewer.sessionID] == nil {
		h.audiences[viewer.sessionID] = make(map[*Spectator]bool)
	}
	h.audiences[viewer.sessionID][viewer] = true

	log.WithFields(log.Fields{
		"session": viewer.sessionID,
		"viewers": len(h.audiences[viewer.sessionID]),
	}).Info("spectator joined")
}

// leave removes a spectator and closes its send channel. Leaving twice is
// harmless.
func (h *Hub) leave(viewer *Spectator) {
	viewers, ok := h.audiences[viewer.sessionID]
	if !ok {
		return
	}
	if _, ok := viewers[viewer]; !ok {
		return
	}
	delete(viewers, viewer)
	close(viewer.send)

	// Nobody left watching
	if len(viewers) == 0 {
		delete(h.audiences, viewer.sessionID)
	}

	log.WithFields(log.Fields{
		"session": viewer.sessionID,
		"viewers": len(viewers),
	}).Info("spectator left")
}

// deliver hands an encoded message to everyone watching its game
func (h *Hub) deliver(message frame) {
	for viewer := range h.audiences[message.sessionID] {
		select {
		case viewer.send <- message.data:
		default:
			// too slow to keep up
			h.leave(viewer)
		}
	}
}

// readPump keeps the connection alive until the spectator goes away.
// Incoming messages are ignored.
func (v *Spectator) readPump() {
	defer func() {
		select {
		case v.hub.unregister <- v:
		case <-v.hub.done:
		}
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("websocket closed unexpectedly")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Every
// message goes out as its own frame so viewers can decode frames directly.
func (v *Spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case message, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
