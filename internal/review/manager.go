// Package review walks a user through a bounded, shuffled selection of the
// due cards of a deck and records the outcome of each review.
package review

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"go.uber.org/zap"
)

// State is the position of a session in its review cycle.
type State int

const (
	AwaitingStart State = iota
	ShowingFront
	ShowingBack
	Complete
	// Empty is terminal: nothing was due when the session was built.
	Empty
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting_start"
	case ShowingFront:
		return "showing_front"
	case ShowingBack:
		return "showing_back"
	case Complete:
		return "complete"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Done reports whether the session can make no further progress.
func (s State) Done() bool {
	return s == Complete || s == Empty
}

// Result pairs a reviewed card front with the review it received.
type Result struct {
	Front  string      `json:"front"`
	Review deck.Review `json:"review"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for timers and due-ness.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithRand sets the source used to shuffle the selected cards.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager is one review session over a deck. It is not safe for concurrent
// use; the owning application serialises access.
type Manager struct {
	deck    *deck.Deck
	options deck.StudyOptions
	cards   []*deck.Card
	cursor  int
	state   State
	start   latch
	stop    latch
	results []Result

	clock  func() time.Time
	rng    *rand.Rand
	logger *zap.Logger
}

// Start builds a session from the cards of d that are due now: the most
// overdue ones up to the session size, in shuffled order.
func Start(d *deck.Deck, opts ...Option) *Manager {
	m := &Manager{
		deck:    d,
		options: d.StudyOptions(),
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(m.clock().UnixNano()))
	}

	now := m.clock()
	m.cards = selectCards(d.ReviewableCards(now), m.options, now)
	m.rng.Shuffle(len(m.cards), func(i, j int) {
		m.cards[i], m.cards[j] = m.cards[j], m.cards[i]
	})

	if len(m.cards) == 0 {
		m.state = Empty
	} else {
		m.state = AwaitingStart
	}
	m.logger.Debug("Review session built",
		zap.String("deck", d.Name()),
		zap.Int("selected", len(m.cards)),
		zap.Int("session_size", m.options.ReviewSessionSize),
		zap.Stringer("state", m.state))
	return m
}

// selectCards orders due cards most overdue first and keeps at most the
// session size of them.
func selectCards(due []*deck.Card, opts deck.StudyOptions, now time.Time) []*deck.Card {
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].TimeUntilNextReview(opts, now) < due[j].TimeUntilNextReview(opts, now)
	})
	n := opts.ReviewSessionSize
	if n > len(due) {
		n = len(due)
	}
	return due[:n]
}

func (m *Manager) Deck() *deck.Deck { return m.deck }
func (m *Manager) State() State     { return m.state }

// Cards returns the remaining working set including the current card.
func (m *Manager) Cards() []*deck.Card {
	if m.cursor >= len(m.cards) {
		return nil
	}
	out := make([]*deck.Card, len(m.cards)-m.cursor)
	copy(out, m.cards[m.cursor:])
	return out
}

func (m *Manager) hasCurrent() bool {
	return !m.state.Done() && m.cursor < len(m.cards)
}

// CurrentCard returns the card under review. It panics once the session is
// done.
func (m *Manager) CurrentCard() *deck.Card {
	if !m.hasCurrent() {
		panic(fmt.Sprintf("review: no current card in state %s", m.state))
	}
	return m.cards[m.cursor]
}

// CurrentFront is the front of the current card, or "" when there is none.
func (m *Manager) CurrentFront() string {
	if !m.hasCurrent() {
		return ""
	}
	return m.cards[m.cursor].Front()
}

// CurrentBack is the back of the current card once revealed, else "".
func (m *Manager) CurrentBack() string {
	if !m.IsRevealed() {
		return ""
	}
	return m.cards[m.cursor].Back()
}

func (m *Manager) IsRevealed() bool {
	return m.state == ShowingBack
}

// CardsRemaining counts the cards not yet answered, including the current one.
func (m *Manager) CardsRemaining() int {
	if m.state.Done() {
		return 0
	}
	return len(m.cards) - m.cursor
}

// Results returns the reviews recorded so far, in answer order.
func (m *Manager) Results() []Result {
	out := make([]Result, len(m.results))
	copy(out, m.results)
	return out
}

// ShowFront presents the current card. The first call after a card comes up
// latches its start timer; later calls keep the first instant.
func (m *Manager) ShowFront() {
	switch m.state {
	case AwaitingStart:
		m.enterFront()
	case ShowingFront:
		m.start.set(m.clock())
	default:
		panic(fmt.Sprintf("review: ShowFront in state %s", m.state))
	}
}

// ShowAnswer reveals the back of the current card and latches its stop timer.
func (m *Manager) ShowAnswer() {
	if m.state != ShowingFront {
		panic(fmt.Sprintf("review: ShowAnswer in state %s", m.state))
	}
	now := m.clock()
	if limit, ok := m.timerLimit(); ok && now.After(limit) {
		now = limit
	}
	m.stop.set(now)
	m.state = ShowingBack
}

// RecordOutcome scores the current card, appends the review to it and moves
// on to the next card or completes the session.
func (m *Manager) RecordOutcome(remembered bool) deck.Review {
	if m.state != ShowingBack {
		panic(fmt.Sprintf("review: RecordOutcome in state %s", m.state))
	}
	if !m.start.ok || !m.stop.ok {
		panic("review: RecordOutcome without both timers latched")
	}
	card := m.cards[m.cursor]
	r := deck.NewReview(m.clock(), m.stop.at.Sub(m.start.at), remembered)
	card.AddReview(r)
	m.results = append(m.results, Result{Front: card.Front(), Review: r})
	m.logger.Debug("Review recorded",
		zap.String("deck", m.deck.Name()),
		zap.String("front", card.Front()),
		zap.Bool("remembered", remembered),
		zap.Duration("thinking_time", r.ThinkingTime))

	m.advance()
	return r
}

// advance moves past the current card without recording anything.
func (m *Manager) advance() {
	m.cursor++
	if m.cursor >= len(m.cards) {
		m.start.reset()
		m.stop.reset()
		m.state = Complete
		m.logger.Debug("Review session complete",
			zap.String("deck", m.deck.Name()),
			zap.Int("reviewed", len(m.results)))
		return
	}
	m.enterFront()
}

func (m *Manager) enterFront() {
	m.start.reset()
	m.stop.reset()
	m.start.set(m.clock())
	m.state = ShowingFront
}

// Reconcile drops cards that are no longer in the deck. When the
// current card is dropped the session moves on as if it had been answered,
// without recording a review.
func (m *Manager) Reconcile() {
	if m.state.Done() {
		return
	}
	currentDropped := false
	kept := make([]*deck.Card, 0, len(m.cards))
	newCursor := 0
	for i, c := range m.cards {
		if i < m.cursor {
			kept = append(kept, c)
			newCursor++
			continue
		}
		if !m.stillInDeck(c) {
			if i == m.cursor {
				currentDropped = true
			}
			m.logger.Debug("Dropping card from review session",
				zap.String("deck", m.deck.Name()),
				zap.String("front", c.Front()))
			continue
		}
		kept = append(kept, c)
	}
	m.cards = kept
	m.cursor = newCursor

	if m.cursor >= len(m.cards) {
		m.start.reset()
		m.stop.reset()
		m.state = Complete
		return
	}
	if currentDropped && m.state != AwaitingStart {
		m.enterFront()
	}
}

// stillInDeck is keyed on card identity: a card removed and re-added under
// the same front is a different card and its replacement is not in the
// working set.
func (m *Manager) stillInDeck(c *deck.Card) bool {
	return m.deck.Contains(c)
}

// SetStudyOptions updates the timer policy of the running session. The card
// selection is not redone.
func (m *Manager) SetStudyOptions(opts deck.StudyOptions) {
	m.options = opts
}

func (m *Manager) timerLimit() (time.Time, bool) {
	if !m.options.IsTimed() || !m.start.ok {
		return time.Time{}, false
	}
	return m.start.at.Add(m.options.TimerInterval.Duration()), true
}

// TimeRemaining is the answer time left on the current card. The second
// result is false unless the session is timed and a front is showing.
func (m *Manager) TimeRemaining() (time.Duration, bool) {
	if m.state != ShowingFront {
		return 0, false
	}
	limit, ok := m.timerLimit()
	if !ok {
		return 0, false
	}
	left := limit.Sub(m.clock())
	if left < 0 {
		left = 0
	}
	return left, true
}

// Expired reports whether the answer time of the current card has run out.
func (m *Manager) Expired() bool {
	left, ok := m.TimeRemaining()
	return ok && left == 0
}

// View is a read-only picture of the session for presentation.
type View struct {
	Deck          string        `json:"deck"`
	State         string        `json:"state"`
	Front         string        `json:"front,omitempty"`
	Back          string        `json:"back,omitempty"`
	Revealed      bool          `json:"revealed"`
	Remaining     int           `json:"remaining"`
	Reviewed      int           `json:"reviewed"`
	Timed         bool          `json:"timed"`
	TimeRemaining time.Duration `json:"time_remaining,omitempty"`
	Expired       bool          `json:"expired,omitempty"`
}

func (m *Manager) View() View {
	v := View{
		Deck:      m.deck.Name(),
		State:     m.state.String(),
		Front:     m.CurrentFront(),
		Back:      m.CurrentBack(),
		Revealed:  m.IsRevealed(),
		Remaining: m.CardsRemaining(),
		Reviewed:  len(m.results),
		Timed:     m.options.IsTimed(),
	}
	if left, ok := m.TimeRemaining(); ok {
		v.TimeRemaining = left
		v.Expired = left == 0
	}
	return v
}
