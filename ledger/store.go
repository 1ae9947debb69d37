package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists the ledger document. The engine saves once per tick after
// all mutations; a failed save is non-fatal and the in-memory ledger stays
// authoritative until the next tick retries.
type Store interface {
	Load(ctx context.Context) (*Ledger, error)
	Save(ctx context.Context, l *Ledger) error
}

// FileStore keeps the state document as a JSON file. Saves go through a
// temp file and rename so a crash never leaves a torn document behind.
type FileStore struct {
	path           string
	initialBalance float64
}

// NewFileStore returns a store rooted at path. A missing file loads as a
// fresh ledger funded with initialBalance.
func NewFileStore(path string, initialBalance float64) *FileStore {
	return &FileStore{path: path, initialBalance: initialBalance}
}

func (s *FileStore) Load(ctx context.Context) (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(s.initialBalance), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return migrate(doc, s.initialBalance), nil
}

func (s *FileStore) Save(ctx context.Context, l *Ledger) error {
	data, err := json.MarshalIndent(encode(l), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
