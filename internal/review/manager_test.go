package review

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// dueDeck builds a deck of n cards that are all due an hour after t0.
func dueDeck(t *testing.T, n int, sessionSize int) *deck.Deck {
	t.Helper()
	d, err := deck.New("review-test")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		f := fmt.Sprintf("card-%d", i)
		d.AddCard(deck.NewCard(f, "back of "+f, t0))
	}
	opts := deck.DefaultStudyOptions()
	opts.ReviewSessionSize = sessionSize
	require.NoError(t, d.SetStudyOptions(opts))
	return d
}

func startAt(d *deck.Deck, clock *fakeClock, seed int64) *Manager {
	return Start(d, WithClock(clock.Now), WithRand(rand.New(rand.NewSource(seed))))
}

func answer(m *Manager, remembered bool) deck.Review {
	m.ShowFront()
	m.ShowAnswer()
	return m.RecordOutcome(remembered)
}

func TestStart_BoundedBySessionSize(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 5, 2)

	m := startAt(d, clock, 1)
	assert.Equal(t, AwaitingStart, m.State())
	assert.Equal(t, 2, m.CardsRemaining())

	answer(m, true)
	answer(m, false)

	assert.Equal(t, Complete, m.State())
	assert.True(t, m.State().Done())
	results := m.Results()
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].Front, results[1].Front)
	assert.True(t, results[0].Review.Success)
	assert.False(t, results[1].Review.Success)
}

func TestStart_SelectsMostOverdue(t *testing.T) {
	d, err := deck.New("overdue")
	require.NoError(t, err)
	for k := 1; k <= 6; k++ {
		d.AddCard(deck.NewCard(fmt.Sprintf("c%d", k), "x", t0.Add(-time.Duration(k)*time.Hour)))
	}
	opts := deck.DefaultStudyOptions()
	opts.ReviewSessionSize = 3
	require.NoError(t, d.SetStudyOptions(opts))

	clock := &fakeClock{now: t0}
	m := startAt(d, clock, 42)

	var fronts []string
	for _, c := range m.Cards() {
		fronts = append(fronts, c.Front())
	}
	assert.ElementsMatch(t, []string{"c6", "c5", "c4"}, fronts)
}

func TestStart_SameSeedSameOrder(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 8, 8)

	order := func(m *Manager) []string {
		var out []string
		for _, c := range m.Cards() {
			out = append(out, c.Front())
		}
		return out
	}
	assert.Equal(t, order(startAt(d, clock, 7)), order(startAt(d, clock, 7)))
}

func TestStart_NothingDue(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Minute)}
	d := dueDeck(t, 3, 10)

	m := startAt(d, clock, 1)
	assert.Equal(t, Empty, m.State())
	assert.True(t, m.State().Done())
	assert.Zero(t, m.CardsRemaining())
	assert.Empty(t, m.CurrentFront())
	assert.Panics(t, func() { m.ShowFront() })
	assert.Panics(t, func() { m.CurrentCard() })

	emptyDeck, err := deck.New("nothing")
	require.NoError(t, err)
	assert.Equal(t, Empty, startAt(emptyDeck, clock, 1).State())
}

func TestShowFront_LatchKeepsFirstInstant(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 1, 1)
	m := startAt(d, clock, 1)

	m.ShowFront()
	assert.Equal(t, ShowingFront, m.State())
	clock.Advance(3 * time.Second)
	m.ShowFront()
	clock.Advance(2 * time.Second)
	m.ShowAnswer()
	assert.True(t, m.IsRevealed())
	assert.Equal(t, "back of card-0", m.CurrentBack())
	clock.Advance(10 * time.Second)

	r := m.RecordOutcome(true)
	assert.Equal(t, 5*time.Second, r.ThinkingTime)
	assert.Equal(t, clock.Now(), r.Instant)

	c := d.CardWithFront("card-0")
	require.True(t, c.HasBeenReviewed())
	assert.Equal(t, r, c.LastReview())
}

func TestInvalidTransitionsPanic(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	m := startAt(dueDeck(t, 1, 1), clock, 1)

	assert.Panics(t, func() { m.ShowAnswer() }, "answer before front")
	assert.Panics(t, func() { m.RecordOutcome(true) }, "outcome before front")

	m.ShowFront()
	assert.Panics(t, func() { m.RecordOutcome(true) }, "outcome before answer")

	m.ShowAnswer()
	assert.Panics(t, func() { m.ShowFront() }, "front while back showing")
	assert.Panics(t, func() { m.ShowAnswer() }, "answer twice")

	m.RecordOutcome(true)
	assert.Equal(t, Complete, m.State())
	assert.Panics(t, func() { m.CurrentCard() })
	assert.Panics(t, func() { m.ShowFront() })
}

func TestReconcile_RemovesCurrentCard(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 3, 3)
	m := startAt(d, clock, 3)

	m.ShowFront()
	current := m.CurrentCard()
	require.True(t, d.RemoveCard(current))
	m.Reconcile()

	assert.Equal(t, ShowingFront, m.State())
	assert.NotSame(t, current, m.CurrentCard())
	assert.Equal(t, 2, m.CardsRemaining())

	answer(m, true)
	answer(m, true)
	assert.Equal(t, Complete, m.State())
	for _, r := range m.Results() {
		assert.NotEqual(t, current.Front(), r.Front)
	}
	assert.Len(t, m.Results(), 2)
}

func TestReconcile_RemovingLastCardCompletes(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 1, 1)
	m := startAt(d, clock, 1)

	m.ShowFront()
	m.ShowAnswer()
	d.RemoveCard(m.CurrentCard())
	m.Reconcile()

	assert.Equal(t, Complete, m.State())
	assert.Empty(t, m.Results())
}

func TestReconcile_EditedCardStays(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 2, 2)
	m := startAt(d, clock, 1)
	m.ShowFront()

	current := m.CurrentCard()
	require.NoError(t, d.EditCard(current, "renamed", "new back"))
	m.Reconcile()

	assert.Same(t, current, m.CurrentCard())
	assert.Equal(t, "renamed", m.CurrentFront())
	m.ShowAnswer()
	assert.Equal(t, "new back", m.CurrentBack())
}

func TestTimedSession(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	d := dueDeck(t, 2, 2)
	opts := d.StudyOptions()
	opts.TimedModus = deck.Timed
	opts.TimerInterval = deck.Interval{Scalar: 30, Unit: deck.Second}
	require.NoError(t, d.SetStudyOptions(opts))
	m := startAt(d, clock, 1)

	_, ok := m.TimeRemaining()
	assert.False(t, ok, "no timer before the front is shown")

	m.ShowFront()
	clock.Advance(10 * time.Second)
	left, ok := m.TimeRemaining()
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, left)
	assert.False(t, m.Expired())

	clock.Advance(40 * time.Second)
	assert.True(t, m.Expired())
	v := m.View()
	assert.True(t, v.Timed)
	assert.True(t, v.Expired)

	m.ShowAnswer()
	r := m.RecordOutcome(true)
	assert.Equal(t, 30*time.Second, r.ThinkingTime)
	assert.True(t, r.Success, "expiry does not override the outcome")

	// Answered in time: the real thinking time is kept.
	clock.Advance(4 * time.Second)
	m.ShowAnswer()
	assert.Equal(t, 4*time.Second, m.RecordOutcome(false).ThinkingTime)
}

func TestUntimedSessionHasNoTimer(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	m := startAt(dueDeck(t, 1, 1), clock, 1)
	m.ShowFront()
	clock.Advance(time.Hour)

	_, ok := m.TimeRemaining()
	assert.False(t, ok)
	assert.False(t, m.Expired())
	m.ShowAnswer()
	assert.Equal(t, time.Hour, m.RecordOutcome(true).ThinkingTime)
}

func TestView(t *testing.T) {
	clock := &fakeClock{now: t0.Add(time.Hour)}
	m := startAt(dueDeck(t, 2, 2), clock, 1)

	v := m.View()
	assert.Equal(t, "review-test", v.Deck)
	assert.Equal(t, "awaiting_start", v.State)
	assert.Equal(t, 2, v.Remaining)
	assert.Empty(t, v.Back)

	m.ShowFront()
	m.ShowAnswer()
	v = m.View()
	assert.Equal(t, "showing_back", v.State)
	assert.True(t, v.Revealed)
	assert.NotEmpty(t, v.Back)

	m.RecordOutcome(true)
	v = m.View()
	assert.Equal(t, 1, v.Reviewed)
	assert.Equal(t, 1, v.Remaining)
}
