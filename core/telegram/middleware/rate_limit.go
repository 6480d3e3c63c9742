package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lunabot/core/logger"
	tghelpers "github.com/m3rciful/lunabot/core/telegram/helpers"

	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"
)

// Limiter decides whether a user may be served right now.
type Limiter interface {
	Allow(ctx context.Context, userID int64) bool
}

// MemoryLimiter enforces a minimum interval per user inside this process.
type MemoryLimiter struct {
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

// NewMemoryLimiter returns a limiter that admits one update per interval per user.
func NewMemoryLimiter(interval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		interval: interval,
		now:      time.Now,
		lastSeen: make(map[int64]time.Time),
	}
}

// Allow records the attempt and reports whether the interval has passed since the last admitted one.
func (l *MemoryLimiter) Allow(_ context.Context, userID int64) bool {
	if l == nil || l.interval <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = now
	if len(l.lastSeen) > 4096 {
		for id, ts := range l.lastSeen {
			if now.Sub(ts) >= l.interval {
				delete(l.lastSeen, id)
			}
		}
	}
	return true
}

// RedisLimiter shares the per-user interval across replicas through SETNX keys.
type RedisLimiter struct {
	client   redis.UniversalClient
	interval time.Duration
	timeout  time.Duration
}

// NewRedisLimiter builds a limiter backed by client.
func NewRedisLimiter(client redis.UniversalClient, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, interval: interval, timeout: time.Second}
}

// Allow admits the update when no throttle key exists for the user. Redis errors fail open.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64) bool {
	if l == nil || l.client == nil || l.interval <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := fmt.Sprintf("lunabot:throttle:%d", userID)
	ok, err := l.client.SetNX(ctx, key, time.Now().Unix(), l.interval).Result()
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "rate_limit.backend_error",
			slog.String("backend", "redis"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return true
	}
	return ok
}

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Limiter   Limiter
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Observe is called for every dropped update.
	Observe func()
}

// RateLimitMiddleware drops updates from users the limiter rejects.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Limiter == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			if opts.Limiter.Allow(ctx, user.ID) {
				return next(c)
			}

			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "rate_limit",
				slog.String("status", "skip"),
				slog.Int64("user_id", user.ID),
			)
			if opts.Observe != nil {
				opts.Observe()
			}
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
