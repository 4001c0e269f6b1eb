package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultSendsPerSec int64 = 10
	waitBackoffStep          = 20 * time.Millisecond
	waitBackoffMax           = 100 * time.Millisecond
	windowSeconds            = 1
)

// Counter window per channel per second; INCR + EXPIRE must be atomic so
// concurrent senders agree on the window.
var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*SendRateLimiter)(nil)

// SendRateLimiter throttles outbound notification sends across processes.
// Multiple POS terminals share one gateway quota; the counter lives in Redis
// so they cannot collectively exceed it.
type SendRateLimiter struct {
	client      *goredis.Client
	sendsPerSec int64
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewSendRateLimiter(client *goredis.Client, sendsPerSec int) (*SendRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	limit := int64(sendsPerSec)
	if limit <= 0 {
		limit = defaultSendsPerSec
	}

	return &SendRateLimiter{
		client:      client,
		sendsPerSec: limit,
		now:         time.Now,
		sleep:       sleepWithContext,
	}, nil
}

func (r *SendRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if r == nil || r.client == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalizedChannel := strings.ToLower(strings.TrimSpace(channel))
	if normalizedChannel == "" {
		return false, fmt.Errorf("channel is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := fmt.Sprintf("notify:ratelimit:%s:%d", normalizedChannel, r.now().UTC().Unix())
	result, err := allowScript.Run(ctx, r.client, []string{key}, r.sendsPerSec, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}

func (r *SendRateLimiter) Wait(ctx context.Context, channel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := waitBackoffStep
	for {
		allowed, err := r.Allow(ctx, channel)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += waitBackoffStep
		if backoff > waitBackoffMax {
			backoff = waitBackoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
