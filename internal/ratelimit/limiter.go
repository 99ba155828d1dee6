package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a minimum interval between actions per client key.
// Keys are typically user ids, falling back to remote addresses for
// anonymous requests.
type Limiter struct {
	mu          sync.Mutex
	clients     map[string]time.Time
	minInterval time.Duration
}

// New creates a limiter enforcing minInterval between actions per key
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		clients:     make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow reports whether the client may act now, recording the action
// time when it may
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, seen := l.clients[key]
	if seen && time.Since(last) < l.minInterval {
		return false
	}
	l.clients[key] = time.Now()
	return true
}

// Wait blocks until the client may act, then records the action time
func (l *Limiter) Wait(key string) {
	for {
		l.mu.Lock()
		last, seen := l.clients[key]
		if !seen || time.Since(last) >= l.minInterval {
			l.clients[key] = time.Now()
			l.mu.Unlock()
			return
		}
		remaining := l.minInterval - time.Since(last)
		l.mu.Unlock()
		time.Sleep(remaining)
	}
}

// Reset forgets the client's last action
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, key)
}

// ResetAll forgets all clients
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = make(map[string]time.Time)
}
