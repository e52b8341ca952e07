package chat

import (
	"sync"
	"time"
)

// RateLimiter implements per-user chat flood control: a sliding window
// cap plus a minimum gap between messages.
type RateLimiter struct {
	mu         sync.Mutex
	userCounts map[int64]*userLimit
	config     RateLimitConfig
}

type userLimit struct {
	count     int
	windowEnd time.Time
	lastMsg   time.Time
}

// RateLimitConfig configures flood control behavior.
type RateLimitConfig struct {
	// MaxPerWindow is max messages per window
	MaxPerWindow int
	// WindowDuration is the sliding window size
	WindowDuration time.Duration
	// CooldownDuration is minimum time between messages
	CooldownDuration time.Duration
}

// DefaultRateLimitConfig for chat messages
var DefaultRateLimitConfig = RateLimitConfig{
	MaxPerWindow:     10,                     // 10 messages
	WindowDuration:   5 * time.Second,        // per 5 seconds
	CooldownDuration: 200 * time.Millisecond, // 200ms between messages
}

// NewRateLimiter creates a new flood control limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		userCounts: make(map[int64]*userLimit),
		config:     cfg,
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a user may send another message.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	limit, exists := rl.userCounts[userID]
	if !exists {
		rl.userCounts[userID] = &userLimit{
			count:     1,
			windowEnd: now.Add(rl.config.WindowDuration),
			lastMsg:   now,
		}
		return true
	}

	// Check cooldown
	if now.Sub(limit.lastMsg) < rl.config.CooldownDuration {
		return false
	}

	// Check/reset window
	if now.After(limit.windowEnd) {
		limit.count = 1
		limit.windowEnd = now.Add(rl.config.WindowDuration)
		limit.lastMsg = now
		return true
	}

	// Check count
	if limit.count >= rl.config.MaxPerWindow {
		return false
	}

	limit.count++
	limit.lastMsg = now
	return true
}

// cleanup removes stale entries every minute.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-5 * time.Minute)

		for key, limit := range rl.userCounts {
			if limit.lastMsg.Before(cutoff) {
				delete(rl.userCounts, key)
			}
		}
		rl.mu.Unlock()
	}
}
