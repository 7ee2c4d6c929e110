// Package study owns the current deck and the review session running against
// it. Every operation is serialised behind one mutex.
package study

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/danieldreier/flashdeck/internal/fsrs"
	"github.com/danieldreier/flashdeck/internal/review"
	"github.com/danieldreier/flashdeck/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNoDeck      = errors.New("no deck is open")
	ErrNoSession   = errors.New("no review session is active")
	ErrWrongState  = errors.New("operation not allowed in the current review state")
	ErrCardMissing = errors.New("no card with that front")
)

type Option func(*App)

func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithRand fixes the source used to shuffle review sessions.
func WithRand(r *rand.Rand) Option {
	return func(a *App) { a.rng = r }
}

// App is the running study context: one current deck, at most one session.
type App struct {
	mu      sync.Mutex
	store   storage.Storage
	current *deck.Deck
	session *review.Manager

	events     emitter
	forecaster *fsrs.Forecaster
	clock      func() time.Time
	rng        *rand.Rand
	logger     *zap.Logger
}

func New(store storage.Storage, opts ...Option) *App {
	a := &App{
		store:      store,
		forecaster: fsrs.NewForecaster(),
		clock:      time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(a.clock().UnixNano()))
	}
	return a
}

// Subscribe registers l for every later change event.
func (a *App) Subscribe(l Listener) {
	a.events.subscribe(l)
}

// do runs fn under the lock and delivers its events after releasing it.
func (a *App) do(fn func() ([]Event, error)) error {
	a.mu.Lock()
	events, err := fn()
	a.mu.Unlock()
	a.events.emit(events)
	return err
}

func (a *App) requireDeck() error {
	if a.current == nil {
		return ErrNoDeck
	}
	return nil
}

// OpenDeck saves the current deck and makes name current, loading it from
// storage or creating it when none is stored. A session in progress is
// rebuilt against the new deck. If the outgoing deck cannot be saved, or the
// requested one cannot be read, nothing changes.
func (a *App) OpenDeck(name string) error {
	return a.do(func() ([]Event, error) {
		if err := deck.ValidateName(name); err != nil {
			return nil, err
		}
		if a.current != nil {
			if err := a.store.Save(a.current); err != nil {
				return nil, fmt.Errorf("failed to save deck %q before switching: %w", a.current.Name(), err)
			}
		}

		d, err := a.store.Load(name)
		switch {
		case errors.Is(err, storage.ErrDeckNotFound):
			if d, err = deck.New(name); err != nil {
				return nil, err
			}
			if err := a.store.Save(d); err != nil {
				return nil, fmt.Errorf("failed to create deck %q: %w", name, err)
			}
			a.logger.Info("Created deck", zap.String("deck", name))
		case err != nil:
			a.logger.Error("Failed to load deck", zap.String("deck", name), zap.Error(err))
			return nil, err
		}

		a.current = d
		if a.session != nil {
			a.session = a.newSession()
		}
		a.logger.Info("Opened deck", zap.String("deck", name), zap.Int("cards", d.Len()))
		return []Event{{Kind: DeckSwapped, Deck: name}}, nil
	})
}

// DeckName is the name of the current deck, or "" when none is open.
func (a *App) DeckName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return ""
	}
	return a.current.Name()
}

// CardInfo describes one card of the current deck.
type CardInfo struct {
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
	Reviews   int       `json:"reviews"`
	Streak    int       `json:"streak"`
	DueAt     time.Time `json:"due_at"`
	Due       bool      `json:"due"`
}

// Cards lists the current deck in insertion order.
func (a *App) Cards() ([]CardInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return nil, err
	}
	now := a.clock()
	opts := a.current.StudyOptions()
	cards := a.current.Cards()
	out := make([]CardInfo, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardInfo{
			Front:     c.Front(),
			Back:      c.Back(),
			CreatedAt: c.CreatedAt(),
			Reviews:   len(c.Reviews()),
			Streak:    c.StreakSize(),
			DueAt:     c.DueAt(opts),
			Due:       c.IsDue(opts, now),
		})
	}
	return out, nil
}

// lookup finds a card by front, reporting invalid fronts as validation
// errors instead of panicking.
func (a *App) lookup(front string) (*deck.Card, error) {
	if !deck.IsValidIdentifier(front) {
		return nil, &deck.ValidationError{Field: "front", Value: front, Err: deck.ErrInvalidFront}
	}
	c := a.current.CardWithFront(front)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrCardMissing, front)
	}
	return c, nil
}

// persist saves the current deck after a mutation.
func (a *App) persist() error {
	if err := a.store.Save(a.current); err != nil {
		a.logger.Error("Failed to save deck", zap.String("deck", a.current.Name()), zap.Error(err))
		return fmt.Errorf("failed to save deck %q: %w", a.current.Name(), err)
	}
	return nil
}

func (a *App) reconcile() {
	if a.session != nil {
		a.session.Reconcile()
	}
}

// AddCard creates a card in the current deck.
func (a *App) AddCard(front, back string) error {
	return a.do(func() ([]Event, error) {
		if err := a.requireDeck(); err != nil {
			return nil, err
		}
		c := deck.NewCard(front, back, a.clock())
		if err := a.current.ValidateCard(c); err != nil {
			return nil, err
		}
		a.current.AddCard(c)
		a.logger.Debug("Added card", zap.String("deck", a.current.Name()), zap.String("front", front))
		return []Event{{Kind: DeckChanged, Deck: a.current.Name(), Front: front}}, a.persist()
	})
}

// EditCard replaces the front and back of the card with the given front.
func (a *App) EditCard(front, newFront, newBack string) error {
	return a.do(func() ([]Event, error) {
		if err := a.requireDeck(); err != nil {
			return nil, err
		}
		c, err := a.lookup(front)
		if err != nil {
			return nil, err
		}
		if err := a.current.EditCard(c, newFront, newBack); err != nil {
			return nil, err
		}
		a.reconcile()
		return []Event{{Kind: CardChanged, Deck: a.current.Name(), Front: newFront}}, a.persist()
	})
}

// RemoveCard deletes the card with front. Removing a card that is not there
// is not an error; the result reports whether anything was removed.
func (a *App) RemoveCard(front string) (bool, error) {
	removed := false
	err := a.do(func() ([]Event, error) {
		if err := a.requireDeck(); err != nil {
			return nil, err
		}
		c, err := a.lookup(front)
		if errors.Is(err, ErrCardMissing) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		removed = a.current.RemoveCard(c)
		a.reconcile()
		return []Event{{Kind: DeckChanged, Deck: a.current.Name(), Front: front}}, a.persist()
	})
	return removed, err
}

// MergeCards folds the card duplicate into the card into and removes it.
func (a *App) MergeCards(duplicate, into string) error {
	return a.do(func() ([]Event, error) {
		if err := a.requireDeck(); err != nil {
			return nil, err
		}
		dup, err := a.lookup(duplicate)
		if err != nil {
			return nil, err
		}
		target, err := a.lookup(into)
		if err != nil {
			return nil, err
		}
		if err := a.current.MergeCards(dup, target); err != nil {
			return nil, err
		}
		a.reconcile()
		name := a.current.Name()
		return []Event{
			{Kind: DeckChanged, Deck: name, Front: duplicate},
			{Kind: CardChanged, Deck: name, Front: into},
		}, a.persist()
	})
}

func (a *App) StudyOptions() (deck.StudyOptions, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return deck.StudyOptions{}, err
	}
	return a.current.StudyOptions(), nil
}

// SetStudyOptions validates and replaces the options of the current deck.
// A running session keeps its cards but follows the new timer policy.
func (a *App) SetStudyOptions(opts deck.StudyOptions) error {
	return a.do(func() ([]Event, error) {
		if err := a.requireDeck(); err != nil {
			return nil, err
		}
		if err := a.current.SetStudyOptions(opts); err != nil {
			return nil, err
		}
		if a.session != nil {
			a.session.SetStudyOptions(opts)
		}
		return []Event{{Kind: OptionsChanged, Deck: a.current.Name()}}, a.persist()
	})
}

func (a *App) newSession() *review.Manager {
	return review.Start(a.current,
		review.WithClock(a.clock),
		review.WithRand(a.rng),
		review.WithLogger(a.logger))
}

// StartReview discards any running session and builds a new one from the
// cards due now.
func (a *App) StartReview() (review.View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return review.View{}, err
	}
	a.session = a.newSession()
	a.logger.Info("Review started",
		zap.String("deck", a.current.Name()),
		zap.Int("remaining", a.session.CardsRemaining()),
		zap.Stringer("state", a.session.State()))
	return a.session.View(), nil
}

func (a *App) requireState(allowed ...review.State) error {
	if a.session == nil {
		return ErrNoSession
	}
	s := a.session.State()
	for _, ok := range allowed {
		if s == ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongState, s)
}

// ShowFront presents the current card of the session.
func (a *App) ShowFront() (review.View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireState(review.AwaitingStart, review.ShowingFront); err != nil {
		return review.View{}, err
	}
	a.session.ShowFront()
	return a.session.View(), nil
}

// ShowAnswer reveals the back of the current card.
func (a *App) ShowAnswer() (review.View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireState(review.ShowingFront); err != nil {
		return review.View{}, err
	}
	a.session.ShowAnswer()
	return a.session.View(), nil
}

// RecordOutcome scores the revealed card and saves the deck. The review is
// kept in memory even when the save fails.
func (a *App) RecordOutcome(remembered bool) (review.View, error) {
	var view review.View
	err := a.do(func() ([]Event, error) {
		if err := a.requireState(review.ShowingBack); err != nil {
			return nil, err
		}
		front := a.session.CurrentFront()
		a.session.RecordOutcome(remembered)
		view = a.session.View()
		return []Event{{Kind: CardChanged, Deck: a.current.Name(), Front: front}}, a.persist()
	})
	return view, err
}

func (a *App) SessionView() (review.View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return review.View{}, ErrNoSession
	}
	return a.session.View(), nil
}

func (a *App) SessionResults() ([]review.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, ErrNoSession
	}
	return a.session.Results(), nil
}

// Save writes the current deck to storage.
func (a *App) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return err
	}
	return a.persist()
}

func (a *App) ListDecks() ([]string, error) {
	return a.store.List()
}

// Stats summarises the current deck now.
func (a *App) Stats() (deck.Stats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return deck.Stats{}, err
	}
	return a.current.Stats(a.clock()), nil
}

// Forecast replays the current deck through FSRS.
func (a *App) Forecast() ([]fsrs.Forecast, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireDeck(); err != nil {
		return nil, err
	}
	return a.forecaster.ForecastDeck(a.current, a.clock()), nil
}

// Close saves the current deck and closes storage.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var saveErr error
	if a.current != nil {
		saveErr = a.persist()
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return saveErr
}
