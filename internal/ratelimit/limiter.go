package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/feral-file/chain-estates/internal/adapter"
)

// Config holds the per-client limits
type Config struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an idle client keeps its bucket; defaults to 10 minutes
	IdleTTL time.Duration
}

// Limiter hands out request tokens per client key
type Limiter interface {
	// Allow reports whether the client identified by key may make a request now
	Allow(key string) bool
	// Clients returns the number of tracked clients
	Clients() int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	config Config
	clock  adapter.Clock

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewLimiter creates a token bucket limiter keyed by client
func NewLimiter(cfg Config, clock adapter.Clock) Limiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &limiter{
		config:    cfg,
		clock:     clock,
		clients:   make(map[string]*client),
		lastSweep: clock.Now(),
	}
}

func (l *limiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.config.IdleTTL {
		l.sweep(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

func (l *limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep drops clients idle for longer than IdleTTL; caller holds mu
func (l *limiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.config.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}
