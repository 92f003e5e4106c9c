package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// claimLimiter throttles claim attempts per participant so codes cannot be
// brute-forced by enumeration. Limiters are kept in memory per process; a
// restart resets the window, which is acceptable for this threat model.
type claimLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newClaimLimiter allows perHour attempts per participant per hour, with the
// full hour's budget available in a burst.
func newClaimLimiter(perHour int) *claimLimiter {
	return &claimLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perHour) / 3600),
		burst:    perHour,
	}
}

func (l *claimLimiter) allow(participantID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[participantID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[participantID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
