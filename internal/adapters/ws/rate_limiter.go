package ws

import (
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

// MessageRateLimiter bounds inbound messages per participant over a
// sliding window. Messages over the limit are dropped like invalid
// payloads; the connection stays open.
type MessageRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.Name][]time.Time
	limit    int
	interval time.Duration
}

func NewMessageRateLimiter(limit int, interval time.Duration) *MessageRateLimiter {
	return &MessageRateLimiter{
		history:  make(map[domain.Name][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *MessageRateLimiter) Allow(name domain.Name) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[name]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[name] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[name] = fresh

	return true
}

// Forget drops the history of a departed participant so the map does not
// grow with every name ever seen.
func (rl *MessageRateLimiter) Forget(name domain.Name) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, name)
}
