// Package fsrs replays a card's review history through the FSRS model to
// give an advisory estimate of how well it is remembered. The estimate is
// informational; due times come from the deck schedule.
package fsrs

import (
	"math"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/open-spaced-repetition/go-fsrs"
)

// Forecast is the FSRS view of one card at a point in time.
type Forecast struct {
	Front          string    `json:"front"`
	State          string    `json:"state"`
	Stability      float64   `json:"stability"`
	Difficulty     float64   `json:"difficulty"`
	Retrievability float64   `json:"retrievability"`
	Due            time.Time `json:"due"`
	Reps           uint64    `json:"reps"`
	Lapses         uint64    `json:"lapses"`
}

// Forecaster holds the FSRS parameters used for replay.
type Forecaster struct {
	parameters fsrs.Parameters
}

func NewForecaster() *Forecaster {
	return &Forecaster{parameters: fsrs.DefaultParam()}
}

func NewForecasterWithParams(params fsrs.Parameters) *Forecaster {
	return &Forecaster{parameters: params}
}

// RatingFor maps a pass/fail outcome onto the FSRS rating scale.
func RatingFor(success bool) fsrs.Rating {
	if success {
		return fsrs.Good
	}
	return fsrs.Again
}

// Replay runs every review of c through the model in order, starting from a
// new card at its creation instant.
func (f *Forecaster) Replay(c *deck.Card) fsrs.Card {
	card := fsrs.Card{Due: c.CreatedAt(), State: fsrs.New}
	for _, r := range c.Reviews() {
		card = f.parameters.Repeat(card, r.Instant)[RatingFor(r.Success)].Card
	}
	return card
}

// Forecast replays c and estimates its retrievability at now.
func (f *Forecaster) Forecast(c *deck.Card, now time.Time) Forecast {
	card := f.Replay(c)
	fc := Forecast{
		Front:      c.Front(),
		State:      stateName(card.State),
		Stability:  card.Stability,
		Difficulty: card.Difficulty,
		Due:        card.Due,
		Reps:       card.Reps,
		Lapses:     card.Lapses,
	}
	if c.HasBeenReviewed() {
		fc.Retrievability = retrievability(now.Sub(c.LastReview().Instant), card.Stability)
	}
	return fc
}

// ForecastDeck forecasts every card of d in deck order.
func (f *Forecaster) ForecastDeck(d *deck.Deck, now time.Time) []Forecast {
	cards := d.Cards()
	out := make([]Forecast, 0, len(cards))
	for _, c := range cards {
		out = append(out, f.Forecast(c, now))
	}
	return out
}

// MeanRetrievability averages the retrievability of reviewed cards. It is
// zero when nothing has been reviewed.
func MeanRetrievability(forecasts []Forecast) float64 {
	var sum float64
	n := 0
	for _, fc := range forecasts {
		if fc.State == stateName(fsrs.New) {
			continue
		}
		sum += fc.Retrievability
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// retrievability is the FSRS forgetting curve R = (1 + 19/81 * t/S)^-0.5
// with t in days.
func retrievability(elapsed time.Duration, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	days := elapsed.Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(1+19.0/81.0*days/stability, -0.5)
}

func stateName(s fsrs.State) string {
	switch s {
	case fsrs.New:
		return "new"
	case fsrs.Learning:
		return "learning"
	case fsrs.Review:
		return "review"
	case fsrs.Relearning:
		return "relearning"
	}
	return "unknown"
}
