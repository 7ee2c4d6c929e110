package deck

import (
	"fmt"
	"time"
)

// Snapshot is the persisted shape of a deck.
type Snapshot struct {
	Name         string         `json:"name"`
	Cards        []CardSnapshot `json:"cards"`
	StudyOptions StudyOptions   `json:"study_options"`
}

// CardSnapshot is the persisted shape of a card.
type CardSnapshot struct {
	ID        string    `json:"id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
	Reviews   []Review  `json:"reviews"`
}

// Snapshot copies the deck into its persisted shape.
func (d *Deck) Snapshot() Snapshot {
	s := Snapshot{
		Name:         d.name,
		Cards:        make([]CardSnapshot, 0, len(d.cards)),
		StudyOptions: d.options,
	}
	for _, c := range d.cards {
		s.Cards = append(s.Cards, CardSnapshot{
			ID:        c.id,
			Front:     c.front,
			Back:      c.back,
			CreatedAt: c.createdAt,
			Reviews:   c.Reviews(),
		})
	}
	return s
}

// FromSnapshot rebuilds a deck. Snapshots that break the deck invariants are
// reported as ErrCorruptSnapshot rather than repaired.
func FromSnapshot(s Snapshot) (*Deck, error) {
	if err := ValidateName(s.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := s.StudyOptions.Validate(); err != nil {
		return nil, fmt.Errorf("%w: deck %q: %v", ErrCorruptSnapshot, s.Name, err)
	}
	d := &Deck{name: s.Name, options: s.StudyOptions}
	seen := make(map[string]bool, len(s.Cards))
	for i, cs := range s.Cards {
		if !IsValidIdentifier(cs.Front) {
			return nil, fmt.Errorf("%w: deck %q: card %d has a blank front", ErrCorruptSnapshot, s.Name, i)
		}
		if seen[cs.Front] {
			return nil, fmt.Errorf("%w: deck %q: duplicate front %q", ErrCorruptSnapshot, s.Name, cs.Front)
		}
		seen[cs.Front] = true
		d.cards = append(d.cards, RestoreCard(cs.ID, cs.Front, cs.Back, cs.CreatedAt, cs.Reviews))
	}
	return d, nil
}
