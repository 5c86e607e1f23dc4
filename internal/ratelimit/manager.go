package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisBreakerDuration = 30 * time.Second

// RedisSettings configures the optional cross-instance guard.
type RedisSettings struct {
	Enabled  bool
	Addr     string
	Password string
	Prefix   string
	DB       int
}

// SettingsProvider supplies the latest redis settings snapshot.
type SettingsProvider func() RedisSettings

// RedisClientFactory constructs a redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

type redisConfig struct {
	addr     string
	password string
	prefix   string
	db       int
}

// Manager evaluates nudge guards and records sends. When redis is
// configured it also reserves a cross-instance slot before a send; redis
// failures trip a breaker and degrade to the transactional store check
// alone rather than blocking dispatches.
type Manager struct {
	store          *Store
	provider       SettingsProvider
	nowFn          func() time.Time
	newRedisClient RedisClientFactory

	mu           sync.Mutex
	guard        *RedisGuard
	guardCfg     redisConfig
	breakerUntil time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(store *Store, provider SettingsProvider, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() RedisSettings { return RedisSettings{} }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		store:          store,
		provider:       provider,
		nowFn:          nowFn,
		newRedisClient: newRedisClient,
	}
}

// Evaluate loads the recipient's entry and runs the track guards. It does
// not reserve anything; call Reserve once the dispatch is committed to
// sending.
func (m *Manager) Evaluate(ctx context.Context, userID, pairKey string, class Class, today string) (Decision, error) {
	entry, errGet := m.store.Get(ctx, userID, pairKey)
	if errGet != nil {
		return Decision{}, errGet
	}
	return Check(entry, class, today, m.nowFn()), nil
}

// Reserve claims a cross-instance slot for the send. Without redis, or
// with redis unavailable, it allows: the store transaction remains the
// authoritative limit and the same-instant race is accepted, as it was
// before the guard existed.
func (m *Manager) Reserve(ctx context.Context, pairKey string, class Class, today string) Decision {
	guard := m.ensureGuard(ctx)
	if guard == nil {
		return allow
	}
	ok, errReserve := guard.Reserve(ctx, pairKey, class, today)
	if errReserve != nil {
		m.tripBreaker(errReserve)
		return allow
	}
	if ok {
		return allow
	}
	if class == ClassAuto {
		return deny(ReasonAutoAlreadySent)
	}
	return deny(ReasonDailyCapReached)
}

// Release undoes a reservation for a dispatch that aborted before sending.
// Best effort.
func (m *Manager) Release(ctx context.Context, pairKey string, class Class, today string) {
	m.mu.Lock()
	guard := m.guard
	m.mu.Unlock()
	if guard == nil {
		return
	}
	if errRelease := guard.Release(ctx, pairKey, class, today); errRelease != nil {
		log.WithError(errRelease).Warn("rate limit: release reservation failed")
	}
}

// CommitSend persists the send transition for the recipient's entry.
func (m *Manager) CommitSend(ctx context.Context, userID, pairKey string, class Class, today string) error {
	return m.store.RecordSend(ctx, userID, pairKey, class, today, m.nowFn())
}

func (m *Manager) ensureGuard(ctx context.Context) *RedisGuard {
	cfg := m.provider()
	if !cfg.Enabled {
		return nil
	}
	now := m.nowFn()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.breakerUntil.IsZero() {
		if now.Before(m.breakerUntil) {
			return nil
		}
		m.breakerUntil = time.Time{}
	}

	next := redisConfig{
		addr:     strings.TrimSpace(cfg.Addr),
		password: strings.TrimSpace(cfg.Password),
		prefix:   strings.TrimSpace(cfg.Prefix),
		db:       cfg.DB,
	}
	if next.addr == "" {
		return nil
	}
	if next.db < 0 {
		next.db = 0
	}

	if m.guard != nil && m.guardCfg == next {
		return m.guard
	}
	if m.guard != nil {
		_ = m.guard.client.Close()
		m.guard = nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     next.addr,
		Password: next.password,
		DB:       next.db,
	})
	if client == nil {
		return nil
	}
	if errPing := client.Ping(ctx).Err(); errPing != nil && !errors.Is(errPing, context.Canceled) {
		_ = client.Close()
		m.tripBreakerLocked(errPing, now)
		return nil
	}
	m.guard = NewRedisGuard(client, next.prefix)
	m.guardCfg = next
	return m.guard
}

func (m *Manager) tripBreaker(err error) {
	if err == nil {
		return
	}
	now := m.nowFn()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tripBreakerLocked(err, now)
}

func (m *Manager) tripBreakerLocked(err error, now time.Time) {
	if !m.breakerUntil.IsZero() && now.Before(m.breakerUntil) {
		return
	}
	m.breakerUntil = now.Add(redisBreakerDuration)
	log.WithError(err).Warn("rate limit: redis unavailable, continuing without cross-instance guard")
}
