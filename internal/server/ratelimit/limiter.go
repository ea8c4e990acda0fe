// Package ratelimit implements the relay's weighted per-IP token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gives every key a bucket of points refilled evenly over period.
// Requests spend a cost in points; a blocked key is refused outright until
// its block expires.
type Limiter struct {
	limit   rate.Limit
	burst   int
	block   time.Duration
	idleTTL time.Duration

	mu      sync.Mutex
	byKey   map[string]*entry
	blocked map[string]time.Time
	hits    uint64
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when points or period are not positive; a nil Limiter
// allows everything.
func New(points int, period, block time.Duration) *Limiter {
	if points <= 0 || period <= 0 {
		return nil
	}
	return &Limiter{
		limit:   rate.Limit(float64(points) / period.Seconds()),
		burst:   points,
		block:   block,
		idleTTL: period,
		byKey:   make(map[string]*entry),
		blocked: make(map[string]time.Time),
	}
}

// Allow reports whether cost points can be spent for key at now.
func (l *Limiter) Allow(key string, cost int, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	if cost <= 0 {
		cost = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.blocked[key]; ok {
		if now.Before(until) {
			return false
		}
		delete(l.blocked, key)
	}

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, cost)

	l.hits++
	if l.hits%512 == 0 {
		l.evict(now)
	}
	return allowed
}

// Block refuses every request from key until now plus the block duration.
func (l *Limiter) Block(key string, now time.Time) {
	if l == nil || l.block <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked[strings.TrimSpace(key)] = now.Add(l.block)
}

// Blocked reports whether key is currently blocked.
func (l *Limiter) Blocked(key string, now time.Time) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.blocked[strings.TrimSpace(key)]
	return ok && now.Before(until)
}

func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
	for k, until := range l.blocked {
		if !now.Before(until) {
			delete(l.blocked, k)
		}
	}
}
