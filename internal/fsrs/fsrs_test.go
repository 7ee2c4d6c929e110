package fsrs

import (
	"testing"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/open-spaced-repetition/go-fsrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

func TestRatingFor(t *testing.T) {
	assert.Equal(t, fsrs.Good, RatingFor(true))
	assert.Equal(t, fsrs.Again, RatingFor(false))
}

func TestForecast_NewCard(t *testing.T) {
	f := NewForecaster()
	c := deck.NewCard("q", "a", t0)

	fc := f.Forecast(c, t0.Add(time.Hour))
	assert.Equal(t, "new", fc.State)
	assert.Zero(t, fc.Reps)
	assert.Zero(t, fc.Retrievability)
	assert.Equal(t, "q", fc.Front)
}

func TestForecast_ReplaysReviews(t *testing.T) {
	f := NewForecaster()
	c := deck.NewCard("q", "a", t0)
	c.AddReview(deck.NewReview(t0.Add(time.Hour), time.Second, true))
	c.AddReview(deck.NewReview(t0.Add(48*time.Hour), time.Second, true))

	fc := f.Forecast(c, t0.Add(48*time.Hour))
	assert.Equal(t, uint64(2), fc.Reps)
	assert.Zero(t, fc.Lapses)
	assert.Greater(t, fc.Stability, 0.0)
	assert.True(t, fc.Due.After(t0.Add(48*time.Hour)))
	assert.InDelta(t, 1.0, fc.Retrievability, 1e-9, "right after a review nothing is forgotten")

	later := f.Forecast(c, t0.Add(30*24*time.Hour))
	assert.Less(t, later.Retrievability, fc.Retrievability)
	assert.Greater(t, later.Retrievability, 0.0)
}

func TestForecast_FailureIsALapse(t *testing.T) {
	f := NewForecaster()
	c := deck.NewCard("q", "a", t0)
	c.AddReview(deck.NewReview(t0.Add(time.Hour), time.Second, true))
	c.AddReview(deck.NewReview(t0.Add(72*time.Hour), time.Second, true))
	c.AddReview(deck.NewReview(t0.Add(30*24*time.Hour), time.Second, false))

	card := f.Replay(c)
	assert.Equal(t, fsrs.Relearning, card.State)
	assert.Equal(t, uint64(1), card.Lapses)
}

func TestForecastDeck(t *testing.T) {
	d, err := deck.New("forecast")
	require.NoError(t, err)
	d.AddCard(deck.NewCard("a", "1", t0))
	d.AddCard(deck.NewCard("b", "2", t0))
	d.CardWithFront("a").AddReview(deck.NewReview(t0.Add(time.Hour), time.Second, true))

	fcs := NewForecaster().ForecastDeck(d, t0.Add(2*time.Hour))
	require.Len(t, fcs, 2)
	assert.Equal(t, "a", fcs[0].Front)
	assert.Equal(t, "new", fcs[1].State)

	mean := MeanRetrievability(fcs)
	assert.Equal(t, fcs[0].Retrievability, mean)
	assert.Zero(t, MeanRetrievability(fcs[1:]))
}

func TestRetrievability(t *testing.T) {
	assert.Equal(t, 1.0, retrievability(0, 5))
	assert.Zero(t, retrievability(time.Hour, 0))
	// At t = S the curve gives (1 + 19/81)^-0.5, about 0.9.
	assert.InDelta(t, 0.9, retrievability(5*24*time.Hour, 5), 0.001)
}
