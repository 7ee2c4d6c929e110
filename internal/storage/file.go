package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/danieldreier/flashdeck/internal/deck"
	"go.uber.org/zap"
)

const fileExt = ".json"

// FileStorage keeps one JSON snapshot per deck in a directory.
type FileStorage struct {
	dir    string
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string, logger *zap.Logger) (*FileStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create deck directory: %w", err)
	}
	logger.Debug("Opened file storage", zap.String("dir", dir))
	return &FileStorage{dir: dir, logger: logger}, nil
}

func (s *FileStorage) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStorage) Load(name string) (*deck.Deck, error) {
	if err := deck.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrDeckNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %q: %w", name, err)
	}

	var snap deck.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, corrupt(name, err)
	}
	if snap.Name != name {
		return nil, corrupt(name, fmt.Errorf("file holds deck %q", snap.Name))
	}
	d, err := deck.FromSnapshot(snap)
	if err != nil {
		return nil, corrupt(name, err)
	}
	s.logger.Debug("Loaded deck", zap.String("deck", name), zap.Int("cards", d.Len()))
	return d, nil
}

// Save writes the deck to a temporary file and renames it into place.
func (s *FileStorage) Save(d *deck.Deck) error {
	data, err := json.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deck %q: %w", d.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(d.Name())
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	s.logger.Debug("Saved deck", zap.String("deck", d.Name()), zap.Int("cards", d.Len()))
	return nil
}

func (s *FileStorage) Exists(name string) bool {
	if deck.ValidateName(name) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *FileStorage) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck directory: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStorage) Close() error { return nil }
