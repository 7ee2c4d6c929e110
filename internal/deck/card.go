package deck

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card is a stimulus/response pair together with its review history.
// Front and back are only changed through the owning Deck so that the
// front-uniqueness invariant cannot be bypassed.
type Card struct {
	id        string
	front     string
	back      string
	createdAt time.Time
	reviews   []Review
}

// NewCard creates a card created at createdAt. Blank text is accepted here;
// such a card is rejected by Deck.ValidateCard.
func NewCard(front, back string, createdAt time.Time) *Card {
	return &Card{
		id:        uuid.New().String(),
		front:     front,
		back:      back,
		createdAt: createdAt,
	}
}

// RestoreCard rebuilds a persisted card. Reviews must be in chronological order.
func RestoreCard(id, front, back string, createdAt time.Time, reviews []Review) *Card {
	if id == "" {
		id = uuid.New().String()
	}
	c := &Card{
		id:        id,
		front:     front,
		back:      back,
		createdAt: createdAt,
	}
	c.reviews = append(c.reviews, reviews...)
	return c
}

func (c *Card) ID() string           { return c.id }
func (c *Card) Front() string        { return c.front }
func (c *Card) Back() string         { return c.back }
func (c *Card) CreatedAt() time.Time { return c.createdAt }

// Reviews returns a copy of the review history, oldest first.
func (c *Card) Reviews() []Review {
	out := make([]Review, len(c.reviews))
	copy(out, c.reviews)
	return out
}

// AddReview appends r to the history.
func (c *Card) AddReview(r Review) {
	c.reviews = append(c.reviews, r)
}

func (c *Card) HasBeenReviewed() bool {
	return len(c.reviews) > 0
}

// LastReview returns the most recent review. It panics if the card has never
// been reviewed; check HasBeenReviewed first.
func (c *Card) LastReview() Review {
	if !c.HasBeenReviewed() {
		panic("deck: LastReview called on a card without reviews")
	}
	return c.reviews[len(c.reviews)-1]
}

// StreakSize counts the consecutive successful reviews ending at the most
// recent one.
func (c *Card) StreakSize() int {
	streak := 0
	for i := len(c.reviews) - 1; i >= 0; i-- {
		if !c.reviews[i].Success {
			break
		}
		streak++
	}
	return streak
}

func (c *Card) setFront(front string) {
	if !IsValidIdentifier(front) {
		panic("deck: setFront with invalid front " + front)
	}
	c.front = front
}

func (c *Card) setBack(back string) {
	if !IsValidIdentifier(back) {
		panic("deck: setBack with invalid back " + back)
	}
	c.back = back
}

// IsValidIdentifier reports whether s contains at least one non-whitespace
// character.
func IsValidIdentifier(s string) bool {
	return strings.TrimSpace(s) != ""
}
