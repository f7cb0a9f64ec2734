package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/game"
	"github.com/sirupsen/logrus"
)

// RecordsHandler is the read-only hook for the post-game analytics viewer:
// it serves persisted game records by session id.
type RecordsHandler struct {
	records game.RecordStore
	log     *logrus.Logger
}

func NewRecordsHandler(records game.RecordStore, log *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{records: records, log: log}
}

// ServeRecord handles GET /api/records/{sessionID}.
func (h *RecordsHandler) ServeRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	record, err := h.records.Load(r.Context(), sessionID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("session", sessionID).Error("record lookup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		h.log.WithError(err).Warn("record encode failed")
	}
}
