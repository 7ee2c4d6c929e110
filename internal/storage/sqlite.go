package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLiteStorage keeps decks in a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens the database at dsn and applies the schema.
func OpenSQLite(dsn string, logger *zap.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps in-memory databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Debug("Opened sqlite storage", zap.String("dsn", dsn))
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Load(name string) (*deck.Deck, error) {
	if err := deck.ValidateName(name); err != nil {
		return nil, err
	}

	var rawOptions string
	err := s.db.QueryRow(`SELECT study_options FROM decks WHERE name = ?`, name).Scan(&rawOptions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrDeckNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deck %q: %w", name, err)
	}

	snap := deck.Snapshot{Name: name}
	if err := json.Unmarshal([]byte(rawOptions), &snap.StudyOptions); err != nil {
		return nil, corrupt(name, err)
	}

	rows, err := s.db.Query(`
		SELECT id, front, back, created_at FROM cards
		WHERE deck = ? ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards of %q: %w", name, err)
	}
	index := map[string]int{}
	for rows.Next() {
		var cs deck.CardSnapshot
		var created int64
		if err := rows.Scan(&cs.ID, &cs.Front, &cs.Back, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cs.CreatedAt = fromNanos(created)
		index[cs.ID] = len(snap.Cards)
		snap.Cards = append(snap.Cards, cs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load cards of %q: %w", name, err)
	}

	rows, err = s.db.Query(`
		SELECT card_id, instant, thinking_time, success FROM reviews
		WHERE deck = ? ORDER BY card_id, seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews of %q: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cardID            string
			instant, thinking int64
			success           bool
		)
		if err := rows.Scan(&cardID, &instant, &thinking, &success); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		i, ok := index[cardID]
		if !ok {
			return nil, corrupt(name, fmt.Errorf("review for unknown card %s", cardID))
		}
		snap.Cards[i].Reviews = append(snap.Cards[i].Reviews,
			deck.NewReview(fromNanos(instant), time.Duration(thinking), success))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load reviews of %q: %w", name, err)
	}

	d, err := deck.FromSnapshot(snap)
	if err != nil {
		return nil, corrupt(name, err)
	}
	s.logger.Debug("Loaded deck", zap.String("deck", name), zap.Int("cards", d.Len()))
	return d, nil
}

// Save replaces every row of the deck inside one transaction.
func (s *SQLiteStorage) Save(d *deck.Deck) error {
	snap := d.Snapshot()
	rawOptions, err := json.Marshal(snap.StudyOptions)
	if err != nil {
		return fmt.Errorf("failed to marshal study options: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reviews WHERE deck = ?`, snap.Name); err != nil {
		return fmt.Errorf("failed to clear reviews: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE deck = ?`, snap.Name); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO decks (name, study_options) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET study_options = excluded.study_options
	`, snap.Name, string(rawOptions)); err != nil {
		return fmt.Errorf("failed to save deck row: %w", err)
	}

	for pos, c := range snap.Cards {
		if _, err := tx.Exec(`
			INSERT INTO cards (id, deck, position, front, back, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, snap.Name, pos, c.Front, c.Back, c.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert card %q: %w", c.Front, err)
		}
		for seq, r := range c.Reviews {
			if _, err := tx.Exec(`
				INSERT INTO reviews (deck, card_id, seq, instant, thinking_time, success)
				VALUES (?, ?, ?, ?, ?, ?)
			`, snap.Name, c.ID, seq, r.Instant.UnixNano(), int64(r.ThinkingTime), r.Success); err != nil {
				return fmt.Errorf("failed to insert review of %q: %w", c.Front, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deck %q: %w", snap.Name, err)
	}
	s.logger.Debug("Saved deck", zap.String("deck", snap.Name), zap.Int("cards", len(snap.Cards)))
	return nil
}

func (s *SQLiteStorage) Exists(name string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM decks WHERE name = ?`, name).Scan(&n)
	return err == nil && n > 0
}

func (s *SQLiteStorage) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM decks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan deck name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
