package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-gateway/ratelimit"
	"github.com/redis/go-redis/v9"
)

/* Redis sorted set implementation of ratelimit.Limiter
 * One key per identity: {prefix}:{identity}
 * Members are unique admission ids scored by admission time in microseconds
 * The whole trim, count and append runs in a single Lua script so replicas share one window
 */

const defaultPrefix = "ratelimit"

// KEYS[1] window key
// ARGV[1] now (µs), ARGV[2] exclusive cutoff "(µs", ARGV[3] limit, ARGV[4] member, ARGV[5] ttl (ms)
var slidingWindowScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
local count = redis.call("ZCARD", KEYS[1])
local allowed = 0
if count < tonumber(ARGV[3]) then
  redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call("PEXPIRE", KEYS[1], ARGV[5])
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
return {allowed, count, oldest[2] or ARGV[1]}
`)

type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewClient connects to Redis and checks the connection
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}

// NewLimiter creates a limiter admitting at most limit attempts per identity within window
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Admit follows the same rule as the in-memory limiter: admissions strictly older than now-window are evicted
func (l *Limiter) Admit(ctx context.Context, identity string, now time.Time) (ratelimit.Decision, error) {
	nowMicros := now.UnixMicro()
	cutoff := nowMicros - l.window.Microseconds()
	ttl := l.window.Milliseconds() + 1

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.key(identity)},
		nowMicros,
		"("+strconv.FormatInt(cutoff, 10),
		l.limit,
		uuid.NewString(),
		ttl,
	).Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("running sliding window script: %w", err)
	}
	if len(res) != 3 {
		return ratelimit.Decision{}, fmt.Errorf("unexpected script reply length: %d", len(res))
	}

	allowed, err := toInt64(res[0])
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("parsing allowed flag: %w", err)
	}
	count, err := toInt64(res[1])
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("parsing window count: %w", err)
	}
	oldest, err := toInt64(res[2])
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("parsing oldest admission: %w", err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return ratelimit.Decision{
		Allowed:   allowed == 1,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   time.UnixMicro(oldest).Add(l.window),
	}, nil
}

// Close closes the Redis connection
func (l *Limiter) Close(ctx context.Context) error {
	return l.client.Close()
}

func (l *Limiter) key(identity string) string {
	return l.prefix + ":" + identity
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	default:
		return 0, errors.New("unexpected reply type")
	}
}
