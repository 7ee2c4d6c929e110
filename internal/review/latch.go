package review

import "time"

// latch records the first instant it is set to until reset.
type latch struct {
	at time.Time
	ok bool
}

func (l *latch) set(at time.Time) {
	if l.ok {
		return
	}
	l.at = at
	l.ok = true
}

func (l *latch) reset() {
	*l = latch{}
}
