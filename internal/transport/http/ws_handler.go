package http

import (
	"encoding/json"
	"net/http"

	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/game"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler upgrades HTTP requests to websockets and routes the message
// protocol into the session.
type WSHandler struct {
	session  *game.Session
	hub      *Hub
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(session *game.Session, hub *Hub, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		session: session,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type reconnectPayload struct {
	ParticipantID string `json:"participantId"`
}

type answerPayload struct {
	QuestionIndex  int   `json:"questionIndex"`
	SelectedOption int   `json:"selectedOption"`
	ElapsedMs      int64 `json:"elapsedMs"`
}

type timeoutPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

// ServeWS owns one connection for its lifetime: a write loop goroutine plus
// this read loop. A single connection's errors never touch session state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}

	c := newConn(ws)
	h.hub.add(c)
	go c.writeLoop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are answered, not fatal.
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "malformed message"})
			continue
		}
		h.dispatch(c, msg)
	}

	ident := h.hub.remove(c)
	c.shutdown()
	if ident.kind == kindParticipant {
		h.session.Disconnect(ident.participantID)
	}
}

func (h *WSHandler) dispatch(c *conn, msg inboundMessage) {
	switch msg.Type {
	case "join":
		var payload joinPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Name == "" {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "join requires a name"})
			return
		}
		res, err := h.session.Join(payload.Name)
		if err != nil {
			h.sendErr(c, err)
			return
		}
		h.hub.bindParticipant(c, res.ParticipantID)
		c.enqueue(game.EventJoined, res)

	case "reconnect":
		var payload reconnectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.ParticipantID == "" {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "reconnect requires a participantId"})
			return
		}
		snap, err := h.session.Reconnect(payload.ParticipantID)
		if err != nil {
			h.sendErr(c, err)
			return
		}
		h.hub.bindParticipant(c, snap.ParticipantID)
		c.enqueue(game.EventReconnected, snap)

	case "answer":
		ident := h.hub.resolve(c)
		if ident.kind != kindParticipant {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "join before answering"})
			return
		}
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.SelectedOption < 0 || payload.ElapsedMs < 0 {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "invalid answer payload"})
			return
		}
		if err := h.session.SubmitAnswer(ident.participantID, payload.QuestionIndex, payload.SelectedOption, payload.ElapsedMs); err != nil {
			h.sendErr(c, err)
		}

	case "timeout":
		ident := h.hub.resolve(c)
		if ident.kind != kindParticipant {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "join before reporting a timeout"})
			return
		}
		var payload timeoutPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "invalid timeout payload"})
			return
		}
		if err := h.session.MarkTimeout(ident.participantID, payload.QuestionIndex); err != nil {
			h.sendErr(c, err)
		}

	case "observer_register":
		h.hub.bindObserver(c)
		c.enqueue(game.EventRoster, game.RosterPayload{Users: h.session.Roster()})

	case "start_game", "next_question", "reveal_results", "end_game", "reset_game":
		if h.hub.resolve(c).kind != kindObserver {
			c.enqueue(game.EventError, game.ErrorPayload{Reason: "operator commands require observer registration"})
			return
		}
		h.operator(c, msg.Type)

	default:
		c.enqueue(game.EventError, game.ErrorPayload{Reason: "unknown message type"})
	}
}

func (h *WSHandler) operator(c *conn, command string) {
	var err error
	switch command {
	case "start_game":
		err = h.session.Start()
	case "next_question":
		err = h.session.NextQuestion()
	case "reveal_results":
		err = h.session.Reveal()
	case "end_game":
		err = h.session.Finish()
	case "reset_game":
		h.session.Reset()
	}
	if err != nil {
		h.sendErr(c, err)
	}
}

// sendErr reports a failure to the offending connection only.
func (h *WSHandler) sendErr(c *conn, err error) {
	if !domain.IsStateConflict(err) {
		h.log.WithError(err).Warn("ws request failed")
	}
	c.enqueue(game.EventError, game.ErrorPayload{Reason: err.Error()})
}
