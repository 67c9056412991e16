package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or refuses one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. It is used
// when no redis is configured, so limits are per instance.
type MemoryLimiter struct {
	limit    int
	window   time.Duration
	every    rate.Limit
	visitors map[string]*visitor
	mutex    sync.Mutex
	now      func() time.Time
}

// NewMemoryLimiter allows bursts of limit requests per key, refilled evenly
// over window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit < 1 {
		limit = 1
	}
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		every:    rate.Every(window / time.Duration(limit)),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Decision{RetryAfter: rl.window}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{RetryAfter: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(v.limiter.TokensAt(now))}, nil
}

// Cleanup drops limiters idle for longer than two windows.
func (rl *MemoryLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > 2*rl.window {
			delete(rl.visitors, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every window until ctx is done.
func (rl *MemoryLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(rl.window)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
