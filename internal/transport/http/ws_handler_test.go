package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/game"
	"live-trivia-service/internal/infra/file"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func testQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: 1, TimeLimitMs: 10000},
		{Prompt: "Which tag makes a hyperlink?", Options: []string{"<link>", "<href>", "<a>", "<url>"}, CorrectOption: 2, TimeLimitMs: 10000},
	}
}

func newTestServer(t *testing.T, records game.RecordStore) (*httptest.Server, *game.Session) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	hub := NewHub()
	cfg := game.Config{
		SessionName:       "Test Trivia",
		StartCountdown:    20 * time.Millisecond,
		NextCountdown:     20 * time.Millisecond,
		StatsTick:         30 * time.Millisecond,
		DisconnectTimeout: time.Minute,
		TopN:              3,
		ShowFullRoster:    true,
		Scoring:           game.DefaultScoringConfig(),
	}
	session := game.NewSession(cfg, testQuestions(), hub, records, log)
	wsHandler := NewWSHandler(session, hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, session
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips interleaved broadcasts (roster updates, stats ticks) until
// a message of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg.Payload
		}
	}
}

func TestFullGameFlow(t *testing.T) {
	server, _ := newTestServer(t, nil)

	observer := dialWS(t, server)
	sendMsg(t, observer, "observer_register", map[string]any{})
	readUntil(t, observer, game.EventRoster)

	player := dialWS(t, server)
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	joined := readUntil(t, player, game.EventJoined)
	if joined["participantId"] == "" || joined["phase"] != "waiting" {
		t.Fatalf("unexpected joined payload: %+v", joined)
	}
	if joined["totalQuestions"].(float64) != 2 {
		t.Fatalf("expected 2 questions, got %v", joined["totalQuestions"])
	}

	sendMsg(t, observer, "start_game", map[string]any{})
	countdown := readUntil(t, player, game.EventCountdown)
	if countdown["seconds"] == nil {
		t.Fatalf("expected countdown seconds")
	}

	question := readUntil(t, player, game.EventQuestionStart)
	if question["prompt"] != "What is 2 + 2?" {
		t.Fatalf("unexpected question: %+v", question)
	}
	if _, leaked := question["correctOption"]; leaked {
		t.Fatalf("answer key leaked to a participant")
	}
	// The observer sees the plain broadcast first, then its keyed variant.
	for {
		obsQuestion := readUntil(t, observer, game.EventQuestionStart)
		key, ok := obsQuestion["correctOption"]
		if !ok {
			continue
		}
		if key.(float64) != 1 {
			t.Fatalf("observer variant must carry the answer key, got %+v", obsQuestion)
		}
		break
	}

	sendMsg(t, player, "answer", map[string]any{"questionIndex": 0, "selectedOption": 1, "elapsedMs": 1500})
	// Periodic stats ticks may race the answer; wait for one that includes it.
	for {
		stats := readUntil(t, observer, game.EventQuestionStats)
		if stats["answered"].(float64) == 1 {
			break
		}
	}

	sendMsg(t, observer, "reveal_results", map[string]any{})
	results := readUntil(t, player, game.EventResults)
	// Lone correct answer under the perfect threshold: 100 + 50 + 50.
	if results["yourScore"].(float64) != 200 || results["rank"].(float64) != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
	readUntil(t, observer, game.EventResultsShown)

	sendMsg(t, observer, "end_game", map[string]any{})
	finished := readUntil(t, player, game.EventGameFinished)
	if finished["finalScore"].(float64) != 200 || finished["finalRank"].(float64) != 1 {
		t.Fatalf("unexpected game_finished: %+v", finished)
	}
}

func TestMalformedMessageIsAnsweredNotFatal(t *testing.T) {
	server, _ := newTestServer(t, nil)
	player := dialWS(t, server)

	if err := player.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	errPayload := readUntil(t, player, game.EventError)
	if errPayload["reason"] == "" {
		t.Fatalf("expected an error reason")
	}

	// The connection survives and can still join.
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	readUntil(t, player, game.EventJoined)
}

func TestUnknownTypeRejected(t *testing.T) {
	server, _ := newTestServer(t, nil)
	player := dialWS(t, server)

	sendMsg(t, player, "bogus", map[string]any{})
	if payload := readUntil(t, player, game.EventError); payload["reason"] != "unknown message type" {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestOperatorCommandsRequireObserver(t *testing.T) {
	server, session := newTestServer(t, nil)
	player := dialWS(t, server)
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	readUntil(t, player, game.EventJoined)

	sendMsg(t, player, "start_game", map[string]any{})
	readUntil(t, player, game.EventError)
	if session.Phase() != domain.PhaseWaiting {
		t.Fatalf("non-observer must not start the game")
	}
}

func TestAnswerBeforeJoinRejected(t *testing.T) {
	server, _ := newTestServer(t, nil)
	player := dialWS(t, server)

	sendMsg(t, player, "answer", map[string]any{"questionIndex": 0, "selectedOption": 1, "elapsedMs": 100})
	readUntil(t, player, game.EventError)
}

func TestReconnectRestoresIdentity(t *testing.T) {
	server, _ := newTestServer(t, nil)

	player := dialWS(t, server)
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	joined := readUntil(t, player, game.EventJoined)
	participantID := joined["participantId"].(string)
	player.Close()

	again := dialWS(t, server)
	sendMsg(t, again, "reconnect", map[string]any{"participantId": participantID})
	snap := readUntil(t, again, game.EventReconnected)
	if snap["participantId"] != participantID {
		t.Fatalf("expected same identity after reconnect, got %+v", snap)
	}
	if snap["phase"] != "waiting" {
		t.Fatalf("expected waiting phase in snapshot, got %+v", snap)
	}

	// Unknown ids are a state conflict, not a new identity.
	stranger := dialWS(t, server)
	sendMsg(t, stranger, "reconnect", map[string]any{"participantId": "nope"})
	readUntil(t, stranger, game.EventError)
}

func TestResetClosesConnectionsAndReopensJoining(t *testing.T) {
	server, session := newTestServer(t, nil)

	observer := dialWS(t, server)
	sendMsg(t, observer, "observer_register", map[string]any{})
	readUntil(t, observer, game.EventRoster)

	player := dialWS(t, server)
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	readUntil(t, player, game.EventJoined)

	sendMsg(t, observer, "start_game", map[string]any{})
	readUntil(t, player, game.EventQuestionStart)

	sendMsg(t, observer, "reset_game", map[string]any{})
	readUntil(t, player, game.EventResetNotice)

	// The server closes the player's connection after the notice.
	_ = player.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := player.ReadMessage(); err != nil {
			break
		}
	}

	if session.Phase() != domain.PhaseWaiting {
		t.Fatalf("expected waiting after reset, got %s", session.Phase())
	}
	if len(session.Roster()) != 0 {
		t.Fatalf("expected empty roster after reset")
	}

	// A fresh join succeeds.
	rejoin := dialWS(t, server)
	sendMsg(t, rejoin, "join", map[string]any{"name": "Bob"})
	joined := readUntil(t, rejoin, game.EventJoined)
	if joined["phase"] != "waiting" {
		t.Fatalf("expected waiting phase after reset, got %+v", joined)
	}
}

func TestRecordPersistedAndServedAtFinish(t *testing.T) {
	store := file.NewRecordStore(t.TempDir())
	server, session := newTestServer(t, store)

	observer := dialWS(t, server)
	sendMsg(t, observer, "observer_register", map[string]any{})
	readUntil(t, observer, game.EventRoster)

	player := dialWS(t, server)
	sendMsg(t, player, "join", map[string]any{"name": "Alice"})
	readUntil(t, player, game.EventJoined)

	sessionID := session.ID()
	sendMsg(t, observer, "start_game", map[string]any{})
	readUntil(t, player, game.EventQuestionStart)
	sendMsg(t, player, "answer", map[string]any{"questionIndex": 0, "selectedOption": 1, "elapsedMs": 1200})
	sendMsg(t, observer, "reveal_results", map[string]any{})
	readUntil(t, player, game.EventResults)
	sendMsg(t, observer, "end_game", map[string]any{})
	readUntil(t, player, game.EventGameFinished)

	log := logrus.New()
	log.SetOutput(io.Discard)
	recordsHandler := NewRecordsHandler(store, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/records/", recordsHandler.ServeRecord)
	viewer := httptest.NewServer(mux)
	defer viewer.Close()

	resp, err := http.Get(viewer.URL + "/api/records/" + sessionID)
	if err != nil {
		t.Fatalf("viewer get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from viewer, got %d", resp.StatusCode)
	}

	missing, err := http.Get(viewer.URL + "/api/records/none")
	if err != nil {
		t.Fatalf("viewer get missing: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", missing.StatusCode)
	}
}
