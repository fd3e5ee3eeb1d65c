package assistant

import (
	"sync"
	"time"

	"github.com/dkeye/Connectify/internal/domain"
)

// TriggerLimiter is a sliding-window limit on wake-word triggers per connection.
type TriggerLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnectionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewTriggerLimiter(limit int, interval time.Duration) *TriggerLimiter {
	return &TriggerLimiter{
		history:  make(map[domain.ConnectionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (tl *TriggerLimiter) Allow(id domain.ConnectionID) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	now := tl.now()
	windowStart := now.Add(-tl.interval)

	attempts := tl.history[id]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= tl.limit {
		tl.history[id] = fresh
		return false
	}

	tl.history[id] = append(fresh, now)
	return true
}

// Forget drops the history of a connection that went away.
func (tl *TriggerLimiter) Forget(id domain.ConnectionID) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	delete(tl.history, id)
}
