package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
	"github.com/tutormatch/tutormatch-api/pkg/response"
)

// RateLimitConfig bounds requests per client IP. A client that exceeds the limit is
// blocked for Block.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Block    time.Duration
}

type clientLimiter struct {
	limiter      *rate.Limiter
	blockedUntil time.Time
	lastSeen     time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	block   time.Duration
	idleTTL time.Duration
	swept   time.Time
	now     func() time.Time
	logger  *zap.Logger
}

// NewRateLimiter builds a limiter allowing cfg.Requests per cfg.Window.
func NewRateLimiter(cfg RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := cfg.Window
	if cfg.Block > idle {
		idle = cfg.Block
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		block:   cfg.Block,
		idleTTL: 2 * idle,
		now:     time.Now,
		logger:  logger,
	}
}

// Allow reports whether key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = now

	if now.Before(client.blockedUntil) {
		return false
	}
	if client.limiter.AllowN(now, 1) {
		return true
	}
	if l.block > 0 {
		client.blockedUntil = now.Add(l.block)
	}
	return false
}

// evict drops idle clients. It walks the map at most once per idleTTL.
func (l *RateLimiter) evict(now time.Time) {
	if now.Sub(l.swept) < l.idleTTL {
		return
	}
	l.swept = now
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.idleTTL && !now.Before(client.blockedUntil) {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects throttled clients with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			l.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			response.Abort(c, appErrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
