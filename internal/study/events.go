package study

import "sync"

// EventKind names a change to the application's deck.
type EventKind string

const (
	// DeckSwapped: a different deck became current.
	DeckSwapped EventKind = "deck_swapped"
	// DeckChanged: cards were added or removed.
	DeckChanged EventKind = "deck_changed"
	// CardChanged: a card was edited or reviewed.
	CardChanged    EventKind = "card_changed"
	OptionsChanged EventKind = "options_changed"
)

type Event struct {
	Kind EventKind `json:"kind"`
	Deck string    `json:"deck"`
	// Front is set for card events. For edits it is the new front.
	Front string `json:"front,omitempty"`
}

// Listener receives change events. It is called without the application
// lock held and may call back into the application.
type Listener func(Event)

type emitter struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (e *emitter) subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// emit delivers each event to every listener in registration order.
func (e *emitter) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.RLock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
