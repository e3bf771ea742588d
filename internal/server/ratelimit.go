package server

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

// RateLimitConfig bounds how fast a single user may submit queries. Each
// query costs at least one model call, so this protects the model budget as
// much as the databases.
type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
	Burst             int `envconfig:"RATE_LIMIT_BURST" default:"5"`
}

// userLimiter tracks one token bucket per authenticated user. Idle entries
// are dropped after an hour so the map does not grow unbounded.
type userLimiter struct {
	mu       sync.Mutex
	limiters map[int]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newUserLimiter(cfg RateLimitConfig) *userLimiter {
	return &userLimiter{
		limiters: make(map[int]*limiterEntry),
		limit:    rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    cfg.Burst,
	}
}

func (l *userLimiter) allow(userID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now

	if len(l.limiters) > 1024 {
		for id, e := range l.limiters {
			if now.Sub(e.lastSeen) > time.Hour {
				delete(l.limiters, id)
			}
		}
	}

	return entry.limiter.Allow()
}

// middleware rejects over-limit requests with the friendly rate limit
// message, as a well-formed chat response rather than a bare error.
func (l *userLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user != nil && !l.allow(user.ID) {
			rateLimitedTotal.Inc()
			friendly := model.FormatFriendlyError(model.ErrorRateLimited, nil)
			writeJSON(w, http.StatusTooManyRequests, ChatResponse{
				Success:      false,
				ResponseText: friendly.Message,
				ErrorKind:    string(model.ErrorRateLimited),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
