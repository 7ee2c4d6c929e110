// Package deck holds the flashcard data model and the spaced-repetition
// due-time policy.
package deck

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxNameLength = 128

// Deck is a named, front-unique, ordered collection of cards with the study
// options that govern their scheduling. Deck is the only type allowed to
// change its card list. It is not safe for concurrent use.
type Deck struct {
	name    string
	cards   []*Card
	options StudyOptions
}

// New creates an empty deck with default study options.
func New(name string) (*Deck, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Deck{name: name, options: DefaultStudyOptions()}, nil
}

// ValidateName checks that name can be used as a deck name and file name.
func ValidateName(name string) error {
	switch {
	case !IsValidIdentifier(name),
		strings.TrimSpace(name) != name,
		name == ".", name == "..",
		strings.ContainsAny(name, `/\`+"\x00"),
		utf8.RuneCountInString(name) > maxNameLength:
		return invalid("name", name, ErrInvalidDeckName)
	}
	return nil
}

func (d *Deck) Name() string { return d.name }
func (d *Deck) Len() int     { return len(d.cards) }
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns the cards in insertion order. The slice is a copy; the cards
// are shared.
func (d *Deck) Cards() []*Card {
	out := make([]*Card, len(d.cards))
	copy(out, d.cards)
	return out
}

func (d *Deck) StudyOptions() StudyOptions {
	return d.options
}

// SetStudyOptions replaces the deck's options after validating them.
func (d *Deck) SetStudyOptions(opts StudyOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	d.options = opts
	return nil
}

// ValidateCard explains why c cannot be added, or returns nil.
func (d *Deck) ValidateCard(c *Card) error {
	if c == nil {
		return invalid("card", "", ErrInvalidFront)
	}
	if !IsValidIdentifier(c.front) {
		return invalid("front", c.front, ErrInvalidFront)
	}
	if d.CardWithFront(c.front) != nil {
		return invalid("front", c.front, ErrDuplicateFront)
	}
	if !IsValidIdentifier(c.back) {
		return invalid("back", c.back, ErrInvalidBack)
	}
	return nil
}

func (d *Deck) CanAddCard(c *Card) bool {
	return d.ValidateCard(c) == nil
}

// AddCard appends c. Adding a card that fails CanAddCard is a programming
// error and panics.
func (d *Deck) AddCard(c *Card) {
	if err := d.ValidateCard(c); err != nil {
		panic(fmt.Sprintf("deck: AddCard precondition violated: %v", err))
	}
	d.cards = append(d.cards, c)
}

// RemoveCard removes c by identity. Removing a card that is not in the deck
// is a no-op; the result reports whether anything was removed.
func (d *Deck) RemoveCard(c *Card) bool {
	for i, existing := range d.cards {
		if existing == c {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return true
		}
	}
	return false
}

// CardWithFront returns the card with the given front, or nil. The front must
// be a valid identifier.
func (d *Deck) CardWithFront(front string) *Card {
	if !IsValidIdentifier(front) {
		panic(fmt.Sprintf("deck: CardWithFront called with invalid front %q", front))
	}
	for _, c := range d.cards {
		if c.front == front {
			return c
		}
	}
	return nil
}

// Contains reports whether c itself (not an equal card) is in the deck.
func (d *Deck) Contains(c *Card) bool {
	for _, existing := range d.cards {
		if existing == c {
			return true
		}
	}
	return false
}

// EditCard changes the text of c, keeping its creation instant and history.
func (d *Deck) EditCard(c *Card, front, back string) error {
	if c == nil || !d.Contains(c) {
		return invalid("card", front, ErrCardNotInDeck)
	}
	if !IsValidIdentifier(front) {
		return invalid("front", front, ErrInvalidFront)
	}
	if !IsValidIdentifier(back) {
		return invalid("back", back, ErrInvalidBack)
	}
	if other := d.CardWithFront(front); other != nil && other != c {
		return invalid("front", front, ErrDuplicateFront)
	}
	c.setFront(front)
	c.setBack(back)
	return nil
}

// MergeCards removes duplicate and folds its back into into. The surviving
// card keeps its own creation instant and review history.
func (d *Deck) MergeCards(duplicate, into *Card) error {
	if duplicate == nil || into == nil {
		return invalid("card", "", ErrCardNotInDeck)
	}
	if duplicate == into {
		return invalid("card", duplicate.front, ErrDuplicateFront)
	}
	if !d.Contains(duplicate) {
		return invalid("duplicate", duplicate.front, ErrCardNotInDeck)
	}
	if !d.Contains(into) {
		return invalid("into", into.front, ErrCardNotInDeck)
	}
	if back := strings.TrimSpace(duplicate.back); back != "" && back != strings.TrimSpace(into.back) {
		into.setBack(into.back + "; " + duplicate.back)
	}
	d.RemoveCard(duplicate)
	return nil
}

// ReviewableCards returns a fresh slice of the cards due at now, in insertion
// order.
func (d *Deck) ReviewableCards(now time.Time) []*Card {
	due := make([]*Card, 0, len(d.cards))
	for _, c := range d.cards {
		if c.IsDue(d.options, now) {
			due = append(due, c)
		}
	}
	return due
}

// TimeUntilNextReview is the smallest TimeUntilNextReview over all cards. It
// panics on an empty deck.
func (d *Deck) TimeUntilNextReview(now time.Time) time.Duration {
	if len(d.cards) == 0 {
		panic("deck: TimeUntilNextReview on an empty deck")
	}
	next := d.cards[0].TimeUntilNextReview(d.options, now)
	for _, c := range d.cards[1:] {
		if t := c.TimeUntilNextReview(d.options, now); t < next {
			next = t
		}
	}
	return next
}
