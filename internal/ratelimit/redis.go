package ratelimit

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Reservation keys expire well after the day they guard; the canonical day
// key in the key string does the actual scoping.
const redisReservationTTLSeconds = 48 * 60 * 60

var redisIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisGuard reserves a send slot per (pair, class, day) atomically across
// service instances. It fronts the transactional store check; it is never
// the only line of defense.
type RedisGuard struct {
	client *redis.Client
	prefix string
}

// NewRedisGuard constructs a RedisGuard.
func NewRedisGuard(client *redis.Client, prefix string) *RedisGuard {
	return &RedisGuard{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

// Reserve atomically claims one send slot. It returns false when the
// track's daily budget for the pair is already spent.
func (g *RedisGuard) Reserve(ctx context.Context, pairKey string, class Class, today string) (bool, error) {
	if g == nil || g.client == nil || pairKey == "" || today == "" {
		return true, nil
	}
	limit := int64(1)
	if class == ClassManual {
		limit = ManualDailyCap
	}
	res, errEval := redisIncrScript.Run(ctx, g.client, []string{g.buildKey(pairKey, class, today)}, redisReservationTTLSeconds).Result()
	if errEval != nil {
		return false, errEval
	}
	count, ok := res.(int64)
	if !ok {
		switch v := res.(type) {
		case int:
			count = int64(v)
		case uint64:
			count = int64(v)
		default:
			return false, errors.New("rate limit redis: unexpected response type")
		}
	}
	return count <= limit, nil
}

// Release returns a slot claimed by Reserve. Used when the dispatch is
// aborted after reservation (for example every destination failed
// validation), so the aborted attempt does not burn the pair's budget.
func (g *RedisGuard) Release(ctx context.Context, pairKey string, class Class, today string) error {
	if g == nil || g.client == nil || pairKey == "" || today == "" {
		return nil
	}
	return g.client.Decr(ctx, g.buildKey(pairKey, class, today)).Err()
}

func (g *RedisGuard) buildKey(pairKey string, class Class, today string) string {
	key := "nudge:" + pairKey + ":" + string(class) + ":" + today
	if g.prefix == "" {
		return key
	}
	return g.prefix + ":" + key
}
