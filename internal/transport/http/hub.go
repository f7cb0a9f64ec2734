package http

import (
	"sync"

	"github.com/gorilla/websocket"
)

// outbound is the wire envelope for server->client messages.
type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// conn wraps a websocket with a buffered, serialized writer. Sends are
// fire-and-forget: a full buffer or closed connection drops the message and
// the client recovers state via reconnection.
type conn struct {
	ws        *websocket.Conn
	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:   ws,
		send: make(chan outbound, 32),
		done: make(chan struct{}),
	}
}

func (c *conn) enqueue(event string, payload any) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- outbound{Type: event, Payload: payload}:
	case <-c.done:
	default:
		// slow client: drop rather than block the session
	}
}

func (c *conn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writeLoop serializes all writes for one connection. On shutdown it drains
// whatever is already queued (so a final reset notice still goes out) before
// closing the socket.
func (c *conn) writeLoop() {
	defer c.ws.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			for {
				select {
				case msg := <-c.send:
					if err := c.ws.WriteJSON(msg); err != nil {
						return
					}
				default:
					_ = c.ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

type identityKind int

const (
	kindUnbound identityKind = iota
	kindParticipant
	kindObserver
)

// identity tags what a connection is at the registry level: not yet bound, a
// participant (with its id), or a privileged observer.
type identity struct {
	kind          identityKind
	participantID string
}

// Hub is the connection registry. It tracks the live connection set, maps
// participant ids to their current connection handle, and implements
// game.Broadcaster. The Participant record itself never holds a connection.
type Hub struct {
	mu           sync.RWMutex
	conns        map[*conn]identity
	participants map[string]*conn
}

func NewHub() *Hub {
	return &Hub{
		conns:        make(map[*conn]identity),
		participants: make(map[string]*conn),
	}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = identity{kind: kindUnbound}
}

// remove drops a connection and returns the identity it held.
func (h *Hub) remove(c *conn) identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	ident, ok := h.conns[c]
	if !ok {
		return identity{}
	}
	delete(h.conns, c)
	if ident.kind == kindParticipant && h.participants[ident.participantID] == c {
		delete(h.participants, ident.participantID)
	}
	return ident
}

// bindParticipant atomically points a participant id at its current
// connection. On reconnect any previous connection is left unbound; its
// reader will clean it up when the socket dies.
func (h *Hub) bindParticipant(c *conn, participantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.participants[participantID]; ok && old != c {
		h.conns[old] = identity{kind: kindUnbound}
	}
	h.conns[c] = identity{kind: kindParticipant, participantID: participantID}
	h.participants[participantID] = c
}

// bindObserver marks a connection as privileged without creating a participant.
func (h *Hub) bindObserver(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ident, ok := h.conns[c]; ok && ident.kind == kindParticipant && h.participants[ident.participantID] == c {
		delete(h.participants, ident.participantID)
	}
	h.conns[c] = identity{kind: kindObserver}
}

func (h *Hub) resolve(c *conn) identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[c]
}

// Broadcast delivers to every live connection.
func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		c.enqueue(event, payload)
	}
}

// SendTo delivers to the connection currently bound to a participant, if any.
func (h *Hub) SendTo(participantID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.participants[participantID]; ok {
		c.enqueue(event, payload)
	}
}

// SendObservers delivers to observer connections only.
func (h *Hub) SendObservers(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c, ident := range h.conns {
		if ident.kind == kindObserver {
			c.enqueue(event, payload)
		}
	}
}

// CloseAll delivers a final payload to every connection and closes them all.
func (h *Hub) CloseAll(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.enqueue(event, payload)
		c.shutdown()
	}
	h.conns = make(map[*conn]identity)
	h.participants = make(map[string]*conn)
}
