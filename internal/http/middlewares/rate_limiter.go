package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter caps requests per client IP inside a fixed window. Webhook
// deliveries and portal traffic share the limit; expired windows are
// reaped in place so the map does not grow with one-off clients.
func RateLimiter(limit int, span time.Duration) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*window)
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			ip := c.RealIP()

			mu.Lock()
			w, ok := clients[ip]
			if !ok || now.After(w.resetAt) {
				for key, other := range clients {
					if now.After(other.resetAt) {
						delete(clients, key)
					}
				}
				w = &window{resetAt: now.Add(span)}
				clients[ip] = w
			}

			if w.count >= limit {
				mu.Unlock()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			w.count++
			mu.Unlock()

			return next(c)
		}
	}
}
