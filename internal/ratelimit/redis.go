package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the window counter, arms its expiry on the first hit
// and returns {count, pttl}. A key left without expiry is re-armed.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisStore keeps fixed windows in Redis so every instance shares the same
// budget. Keys expire with their window.
type RedisStore struct {
	client redis.Scripter
	policy Policy
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(client redis.Scripter, p Policy, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, policy: p.normalized(), prefix: prefix, now: time.Now}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string) (Decision, error) {
	res, err := hitScript.Run(ctx, s.client,
		[]string{s.prefix + ":" + key},
		s.policy.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	d := Decision{ResetAt: s.now().Add(ttl)}
	if count > s.policy.Limit {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = s.policy.Limit - count
	return d, nil
}
