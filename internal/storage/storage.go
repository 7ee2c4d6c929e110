// Package storage persists decks. A deck is always saved and loaded whole.
package storage

import (
	"errors"
	"fmt"

	"github.com/danieldreier/flashdeck/internal/deck"
	"go.uber.org/zap"
)

var (
	// ErrDeckNotFound is returned by Load when no deck of that name is stored.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrCorrupt wraps any failure to turn stored data back into a deck.
	ErrCorrupt = errors.New("stored deck is corrupt")
)

// Storage loads and saves whole decks by name.
type Storage interface {
	Load(name string) (*deck.Deck, error)
	Save(d *deck.Deck) error
	Exists(name string) bool
	// List returns the stored deck names in lexical order.
	List() ([]string, error)
	Close() error
}

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open returns the backend named by driver rooted at path. For the JSON
// driver path is a directory; for SQLite it is the database file.
func Open(driver, path string, logger *zap.Logger) (Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch driver {
	case DriverJSON, "":
		return NewFileStorage(path, logger)
	case DriverSQLite:
		return OpenSQLite(path, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func corrupt(name string, err error) error {
	return fmt.Errorf("%w: deck %q: %v", ErrCorrupt, name, err)
}
