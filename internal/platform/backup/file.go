package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is the emergency backup tier. Each bill gets its own JSON file
// so a corrupted write can never take out another bill's backup.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(billID string) string {
	return filepath.Join(s.dir, "emergency_discount_backup_"+billID+".json")
}

func (s *FileStore) Save(_ context.Context, billID string, discount map[string]string) error {
	payload, err := json.Marshal(newEnvelope(billID, discount))
	if err != nil {
		return fmt.Errorf("marshal backup envelope: %w", err)
	}
	tmp := s.path(billID) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write emergency backup: %w", err)
	}
	if err := os.Rename(tmp, s.path(billID)); err != nil {
		return fmt.Errorf("finalize emergency backup: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, billID string) (*Envelope, bool, error) {
	payload, err := os.ReadFile(s.path(billID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read emergency backup: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, false, fmt.Errorf("decode emergency backup: %w", err)
	}
	return &env, true, nil
}

func (s *FileStore) Delete(_ context.Context, billID string) error {
	err := os.Remove(s.path(billID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
