package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/habit-progression/internal/http/response"
)

const (
	defaultLimiterKeys = 10000
	defaultLimiterTTL  = 10 * time.Minute
)

// Limiter хранит отдельный rate.Limiter на каждого пользователя.
// Ключи вытесняются по LRU и по времени жизни.
type Limiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewLimiter создаёт Limiter на rps запросов в секунду с запасом burst.
func NewLimiter(rps float64, burst int) *Limiter {
	return NewLimiterWithEviction(rps, burst, defaultLimiterKeys, defaultLimiterTTL)
}

// NewLimiterWithEviction задаёт число хранимых ключей и время их жизни.
func NewLimiterWithEviction(rps float64, burst, maxKeys int, ttl time.Duration) *Limiter {
	return &Limiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxKeys, nil, ttl),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Len возвращает число отслеживаемых ключей.
func (l *Limiter) Len() int {
	return l.limiters.Len()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters.Add(key, lim)
	}
	return lim
}

// RateLimitMiddleware ограничивает частоту запросов пользователя.
// Без аутентификации ключом служит адрес клиента.
func RateLimitMiddleware(log *slog.Logger, l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserUIDFrom(r.Context())
			if !ok {
				key, _, _ = net.SplitHostPort(r.RemoteAddr)
			}
			if !l.get(key).Allow() {
				log.Warn("too many requests", slog.String("key", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
