package deck

import "time"

// Stats summarises a deck at a point in time.
type Stats struct {
	TotalCards        int           `json:"total_cards"`
	DueCards          int           `json:"due_cards"`
	ReviewedCards     int           `json:"reviewed_cards"`
	NewCards          int           `json:"new_cards"`
	TotalReviews      int           `json:"total_reviews"`
	SuccessfulReviews int           `json:"successful_reviews"`
	SuccessRate       float64       `json:"success_rate"`
	LongestStreak     int           `json:"longest_streak"`
	NextReviewIn      time.Duration `json:"next_review_in"`
	HasCards          bool          `json:"has_cards"`
}

// Stats counts cards and reviews. SuccessRate is a percentage; NextReviewIn
// is only meaningful when HasCards is true.
func (d *Deck) Stats(now time.Time) Stats {
	var s Stats
	s.TotalCards = len(d.cards)
	for _, c := range d.cards {
		if c.IsDue(d.options, now) {
			s.DueCards++
		}
		if c.HasBeenReviewed() {
			s.ReviewedCards++
		} else {
			s.NewCards++
		}
		for _, r := range c.reviews {
			s.TotalReviews++
			if r.Success {
				s.SuccessfulReviews++
			}
		}
		if streak := c.StreakSize(); streak > s.LongestStreak {
			s.LongestStreak = streak
		}
	}
	if s.TotalReviews > 0 {
		s.SuccessRate = float64(s.SuccessfulReviews) / float64(s.TotalReviews) * 100.0
	}
	if len(d.cards) > 0 {
		s.HasCards = true
		s.NextReviewIn = d.TimeUntilNextReview(now)
	}
	return s
}
