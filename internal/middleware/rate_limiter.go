package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana de conteo por IP
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	loginMap   = make(map[string]*rateEntry)
	loginMapMu sync.Mutex

	apiRateMap   = make(map[string]*rateEntry)
	apiRateMapMu sync.Mutex
)

// LoginRateLimiter limita los intentos de login a 20 por minuto por IP.
func LoginRateLimiter() gin.HandlerFunc {
	return limitar(&loginMapMu, loginMap, 20, time.Minute,
		"Demasiados intentos de login. Intenta en 1 minuto.")
}

// RateLimiter es el limitador general de la API por IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return limitar(&apiRateMapMu, apiRateMap, limit, window,
		"Demasiadas solicitudes. Intenta de nuevo en un momento.")
}

func limitar(mu *sync.Mutex, m map[string]*rateEntry, limit int, window time.Duration, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		entry, exists := m[ip]
		if !exists {
			entry = &rateEntry{}
			m[ip] = entry
		}
		mu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}

		entry.count++
		if entry.count > limit {
			c.Header("Retry-After", entry.windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// Purga periodica de IPs vencidas para que los mapas no crezcan sin limite.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purged := purgeMap(&loginMapMu, loginMap, now) + purgeMap(&apiRateMapMu, apiRateMap, now)
		if purged > 0 {
			log.Debug().Int("purged", purged).Msg("mapas del rate limiter purgados")
		}
	}
}

func purgeMap(mu *sync.Mutex, m map[string]*rateEntry, now time.Time) int {
	mu.Lock()
	defer mu.Unlock()
	purged := 0
	for ip, entry := range m {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(m, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	return purged
}
