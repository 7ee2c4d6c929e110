package deck

import (
	"math"
	"time"
)

// NextInterval returns the delay between the card's reference instant
// (creation or last review) and its due instant under opts.
func (c *Card) NextInterval(opts StudyOptions) time.Duration {
	if !c.HasBeenReviewed() {
		return opts.InitialInterval.Duration()
	}
	if !c.LastReview().Success {
		return opts.ForgottenInterval.Duration()
	}
	growth := math.Pow(opts.LengtheningFactor, float64(c.StreakSize()-1))
	return scaleDuration(opts.RememberedInterval.Duration(), growth)
}

// DueAt is the instant the card becomes due under opts. It is recomputed from
// the history on every call and never cached.
func (c *Card) DueAt(opts StudyOptions) time.Time {
	ref := c.createdAt
	if c.HasBeenReviewed() {
		ref = c.LastReview().Instant
	}
	return ref.Add(c.NextInterval(opts))
}

// TimeUntilNextReview is DueAt minus now; negative once the card is overdue.
func (c *Card) TimeUntilNextReview(opts StudyOptions, now time.Time) time.Duration {
	return c.DueAt(opts).Sub(now)
}

// IsDue reports whether the due instant lies in the past.
func (c *Card) IsDue(opts StudyOptions, now time.Time) bool {
	return c.TimeUntilNextReview(opts, now) < 0
}
