package deck

import "time"

// Review records a single scored review of a card.
type Review struct {
	Instant      time.Time     `json:"instant"`
	ThinkingTime time.Duration `json:"thinking_time"`
	Success      bool          `json:"success"`
}

// NewReview creates a review scored at instant.
func NewReview(instant time.Time, thinkingTime time.Duration, success bool) Review {
	return Review{
		Instant:      instant,
		ThinkingTime: thinkingTime,
		Success:      success,
	}
}
