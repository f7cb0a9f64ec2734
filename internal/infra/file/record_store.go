package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"live-trivia-service/internal/domain"
)

// RecordStore persists one JSON file per session under a directory. This is
// the durable artifact the external analytics viewer consumes.
type RecordStore struct {
	dir string
}

func NewRecordStore(dir string) *RecordStore {
	return &RecordStore{dir: dir}
}

// Save writes the record atomically (temp file + rename) so the viewer never
// observes a half-written file.
func (s *RecordStore) Save(_ context.Context, record *domain.GameRecord) error {
	if err := validateSessionID(record.SessionID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	path := s.path(record.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Load reads a persisted record by session id.
func (s *RecordStore) Load(_ context.Context, sessionID string) (*domain.GameRecord, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(sessionID))
	if os.IsNotExist(err) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var record domain.GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &record, nil
}

func (s *RecordStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// validateSessionID keeps lookups confined to the record directory.
func validateSessionID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}
