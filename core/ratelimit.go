package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const signinAttemptPrefix = "signin:attempts:"

// SigninLimiter throttles failed sign-in attempts per (email, client IP)
// with a fixed window counter in redis. A successful sign-in clears the
// counter.
type SigninLimiter struct {
	redis  RedisClientRaw
	limit  int
	window time.Duration
}

func NewSigninLimiter(redis RedisClientRaw, limit int, window time.Duration) *SigninLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &SigninLimiter{redis: redis, limit: limit, window: window}
}

func signinAttemptKey(email, ip string) string {
	return signinAttemptPrefix + strings.ToLower(strings.TrimSpace(email)) + ":" + ip
}

// Allow records one attempt and reports whether the caller is still under
// the limit. The first attempt in a window starts the expiry clock.
func (l *SigninLimiter) Allow(ctx context.Context, email, ip string) (bool, error) {
	key := signinAttemptKey(email, ip)
	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}

// Reset clears the attempt counter, typically after a successful sign-in.
func (l *SigninLimiter) Reset(ctx context.Context, email, ip string) error {
	return l.redis.Del(ctx, signinAttemptKey(email, ip)).Err()
}
